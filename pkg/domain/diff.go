package domain

// DiffRecords lists the fields whose values differ between two records.
// Name is not editable and therefore reported only through the forward flow,
// where it is compared as well.
func DiffRecords(before, after ComplaintRecord) []Field {
	var changed []Field
	if before.Name != after.Name {
		changed = append(changed, fieldName)
	}
	for _, f := range EditableFields {
		if before.Value(f) != after.Value(f) {
			changed = append(changed, f)
		}
	}
	return changed
}

// fieldName is only used for diffs; the name cannot be chosen from the edit menu.
const fieldName Field = "name"
