package model

import internalmodel "github.com/goliatone/go-jsform/internal/model"

// FieldType re-exports the internal FieldType enumeration.
type FieldType = internalmodel.FieldType

const (
	FieldTypeText         = internalmodel.FieldTypeText
	FieldTypeTextarea     = internalmodel.FieldTypeTextarea
	FieldTypeNumber       = internalmodel.FieldTypeNumber
	FieldTypeMoney        = internalmodel.FieldTypeMoney
	FieldTypeEmail        = internalmodel.FieldTypeEmail
	FieldTypeSelect       = internalmodel.FieldTypeSelect
	FieldTypeMultiSelect  = internalmodel.FieldTypeMultiSelect
	FieldTypeRadio        = internalmodel.FieldTypeRadio
	FieldTypeDate         = internalmodel.FieldTypeDate
	FieldTypeCheckbox     = internalmodel.FieldTypeCheckbox
	FieldTypeFile         = internalmodel.FieldTypeFile
	FieldTypeCountries    = internalmodel.FieldTypeCountries
	FieldTypeHidden       = internalmodel.FieldTypeHidden
	FieldTypeWorkSchedule = internalmodel.FieldTypeWorkSchedule
	FieldTypeFieldset     = internalmodel.FieldTypeFieldset
	FieldTypeFieldsetFlat = internalmodel.FieldTypeFieldsetFlat
)

const (
	RuleRequired    = internalmodel.RuleRequired
	RuleMinLength   = internalmodel.RuleMinLength
	RuleMaxLength   = internalmodel.RuleMaxLength
	RuleMinimum     = internalmodel.RuleMinimum
	RuleMaximum     = internalmodel.RuleMaximum
	RulePattern     = internalmodel.RulePattern
	RuleFormat      = internalmodel.RuleFormat
	RuleMinItems    = internalmodel.RuleMinItems
	RuleMaxItems    = internalmodel.RuleMaxItems
	RuleConst       = internalmodel.RuleConst
	RuleMinDate     = internalmodel.RuleMinDate
	RuleMaxDate     = internalmodel.RuleMaxDate
	RuleMaxFileSize = internalmodel.RuleMaxFileSize
	RuleAccept      = internalmodel.RuleAccept
)

// RuleSource re-exports the rule provenance marker.
type RuleSource = internalmodel.RuleSource

const (
	RuleSourceBase        = internalmodel.RuleSourceBase
	RuleSourceConditional = internalmodel.RuleSourceConditional
)

type ValidationRule = internalmodel.ValidationRule
type FileValue = internalmodel.FileValue
type Option = internalmodel.Option
type OptionGroup = internalmodel.OptionGroup
type Statement = internalmodel.Statement
type Field = internalmodel.Field
type Form = internalmodel.Form

// KnownFieldType reports whether the type belongs to the closed set.
func KnownFieldType(t FieldType) bool { return internalmodel.KnownFieldType(t) }

// DefaultLabel derives a label from a property name.
func DefaultLabel(name string) string { return internalmodel.DefaultLabel(name) }
