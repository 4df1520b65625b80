package diag

import (
	"fmt"
)

type Code uint16

const (
	// UnknownCode is the fallback for unclassified findings.
	UnknownCode Code = 0

	// Annotation grammar (1000-1999)
	AttInfo               Code = 1000
	AttUnknownKey         Code = 1001
	AttExpectEquals       Code = 1002
	AttExpectString       Code = 1003
	AttExpectPath         Code = 1004
	AttUnexpectedToken    Code = 1005
	AttUnterminatedString Code = 1006

	// Constraint validation (2000-2999)
	ValInfo               Code = 2000
	ValDuplicate          Code = 2001
	ValDuplicateFirst     Code = 2002
	ValExclusive          Code = 2003
	ValExclusiveOther     Code = 2004
	ValCustomRequired     Code = 2005
	ValNoComparableFields Code = 2006

	// Declaration shape (3000-3999)
	ShpInfo           Code = 3000
	ShpNotNamedStruct Code = 3001
	ShpUnnamedField   Code = 3002
	ShpTargetNotFound Code = 3003
	ShpGoSyntax       Code = 3004

	// I/O (4000-4999)
	IOInfo          Code = 4000
	IOLoadFileError Code = 4001
	IOWriteError    Code = 4002
	IOCacheWrite    Code = 4003

	// Code generation (5000-5999)
	GenInfo          Code = 5000
	GenFormatFailed  Code = 5001
	GenUnknownImport Code = 5002

	// Configuration (6000-6999)
	CfgInfo            Code = 6000
	CfgInvalidManifest Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	AttInfo:               "Annotation information",
	AttUnknownKey:         "Unknown annotation attribute",
	AttExpectEquals:       "Attribute requires a value",
	AttExpectString:       "Attribute value must be a quoted string",
	AttExpectPath:         "Attribute value must be a function path",
	AttUnexpectedToken:    "Unexpected token in annotation",
	AttUnterminatedString: "Unterminated string in annotation",
	ValInfo:               "Validation information",
	ValDuplicate:          "Duplicate attribute",
	ValDuplicateFirst:     "First occurrence of duplicated attribute",
	ValExclusive:          "Exclusive attribute combined with others",
	ValExclusiveOther:     "Attribute conflicts with an exclusive attribute",
	ValCustomRequired:     "Ignored-as-custom field without a custom hook",
	ValNoComparableFields: "No comparable fields",
	ShpInfo:               "Shape information",
	ShpNotNamedStruct:     "Declaration is not a named-field struct",
	ShpUnnamedField:       "Field has no discoverable name",
	ShpTargetNotFound:     "Requested type not found",
	ShpGoSyntax:           "Source file is not valid Go",
	IOInfo:                "I/O information",
	IOLoadFileError:       "I/O load file error",
	IOWriteError:          "I/O write error",
	IOCacheWrite:          "Disk cache write failed",
	GenInfo:               "Generation information",
	GenFormatFailed:       "Generated source failed to format",
	GenUnknownImport:      "Function path references an unimported package",
	CfgInfo:               "Configuration information",
	CfgInvalidManifest:    "Invalid manifest",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("ATT%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("VAL%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SHP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IOE%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("CFG%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
