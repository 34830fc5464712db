// Package model defines the typed field descriptors consumed by renderers
// and flow orchestrators. Builders reside in internal/model but return the
// types aliased here. Validation rules expose canonical identifiers
// (minimum/maximum, minLength/maxLength, pattern, minDate/maxDate,
// maxFileSize) with string parameters so renderers can map bounds onto HTML
// attributes or runtime validators without sacrificing deterministic JSON
// snapshots. Presentation metadata flows into Field.Meta while options,
// region groups, and statements surface as typed values.
package model
