package fields

import "github.com/goliatone/go-jsform/pkg/model"

// FilesFromValue normalizes the shapes file inputs produce into a flat slice.
// Unknown shapes yield nil so callers can pass the raw value on to validation.
func FilesFromValue(value any) []model.FileValue {
	switch v := value.(type) {
	case model.FileValue:
		return []model.FileValue{v}
	case *model.FileValue:
		if v == nil {
			return nil
		}
		return []model.FileValue{*v}
	case []model.FileValue:
		return v
	case []any:
		out := make([]model.FileValue, 0, len(v))
		for _, entry := range v {
			out = append(out, FilesFromValue(entry)...)
		}
		return out
	default:
		return nil
	}
}

// AppendFiles merges newly picked files into the existing selection. Existing
// files are never dropped; a re-picked file (same name and size) is kept once.
func AppendFiles(existing any, added ...model.FileValue) []model.FileValue {
	current := FilesFromValue(existing)
	out := make([]model.FileValue, 0, len(current)+len(added))
	out = append(out, current...)

	for _, file := range added {
		duplicate := false
		for _, have := range out {
			if have.Name == file.Name && have.Size == file.Size {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, file)
		}
	}
	return out
}

// castFile normalizes file values to a slice so downstream consumers handle
// one shape. Unrecognized input passes through for validation to flag.
func castFile(raw any) any {
	if raw == nil {
		return nil
	}
	if files := FilesFromValue(raw); len(files) > 0 {
		return files
	}
	return raw
}
