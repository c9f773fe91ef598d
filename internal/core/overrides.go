package core

// OverrideKey addresses a single manually edited cell. Bucket ids are
// granularity-specific, so an override recorded under WEEK is invisible
// under MONTH and reappears unchanged when the granularity returns.
type OverrideKey struct {
	Section  Section
	ItemID   string
	BucketID string
}

// Overrides maps edited cells to their manual values. Presence is the
// signal: a zero override is a real override, not the absence of one.
type Overrides map[OverrideKey]Money

func (o Overrides) Get(section Section, itemID, bucketID string) (Money, bool) {
	v, ok := o[OverrideKey{Section: section, ItemID: itemID, BucketID: bucketID}]
	return v, ok
}

func (o Overrides) Set(section Section, itemID, bucketID string, value Money) {
	o[OverrideKey{Section: section, ItemID: itemID, BucketID: bucketID}] = value
}

// RemoveItem drops every override belonging to an item. Called on item
// deletion and on recurrence replacement so the rule fully rematerializes.
func (o Overrides) RemoveItem(section Section, itemID string) {
	for k := range o {
		if k.Section == section && k.ItemID == itemID {
			delete(o, k)
		}
	}
}

func (o Overrides) Clone() Overrides {
	out := make(Overrides, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}
