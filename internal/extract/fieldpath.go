package extract

import (
	"strings"

	"github.com/ppiankov/remitflat/internal/document"
)

// SegmentKind tags a path step
type SegmentKind int

const (
	SegmentKey           SegmentKind = iota // Literal object key
	SegmentClaimIndex                       // Position within Remittance.Claim
	SegmentActivityIndex                    // Position within Claim.Activity
)

// Segment is one step of a FieldPath
type Segment struct {
	Kind SegmentKind
	Key  string // Set only for SegmentKey
}

// Key returns a literal key segment
func Key(name string) Segment {
	return Segment{Kind: SegmentKey, Key: name}
}

// ClaimIndex is the placeholder replaced by the current claim position
var ClaimIndex = Segment{Kind: SegmentClaimIndex}

// ActivityIndex is the placeholder replaced by the current activity position
var ActivityIndex = Segment{Kind: SegmentActivityIndex}

func (s Segment) String() string {
	switch s.Kind {
	case SegmentClaimIndex:
		return "[claim]"
	case SegmentActivityIndex:
		return "[activity]"
	default:
		return s.Key
	}
}

// FieldPath locates a value inside a remittance document
type FieldPath []Segment

// Path builds a FieldPath from segments
func Path(segments ...Segment) FieldPath {
	return FieldPath(segments)
}

// IsActivityLevel reports whether the path passes through an activity placeholder
func (p FieldPath) IsActivityLevel() bool {
	for _, s := range p {
		if s.Kind == SegmentActivityIndex {
			return true
		}
	}
	return false
}

func (p FieldPath) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Resolve walks doc along the path, substituting claimIdx and activityIdx for
// the placeholders. Any step that cannot be taken (missing key, index out of
// range, stepping into a scalar) makes the whole path resolve to nil.
func (p FieldPath) Resolve(doc document.Document, claimIdx, activityIdx int) any {
	return walk(doc, p, claimIdx, activityIdx)
}

// Scope holds the nodes a row is built from, looked up once per claim and
// activity instead of once per field.
type Scope struct {
	Root        document.Document
	Claim       document.Document
	Activity    document.Document
	HasClaim    bool
	HasActivity bool
}

// ResolveIn resolves the path like Resolve, but starts at the node of the
// deepest placeholder it passes through, taken from s.
func (p FieldPath) ResolveIn(s Scope) any {
	for i := len(p) - 1; i >= 0; i-- {
		switch p[i].Kind {
		case SegmentActivityIndex:
			if !s.HasActivity {
				return nil
			}
			return walk(s.Activity, p[i+1:], -1, -1)
		case SegmentClaimIndex:
			if !s.HasClaim {
				return nil
			}
			return walk(s.Claim, p[i+1:], -1, -1)
		}
	}
	return walk(s.Root, p, -1, -1)
}

func walk(current document.Document, segments []Segment, claimIdx, activityIdx int) any {
	for _, seg := range segments {
		var next document.Document
		var ok bool

		switch seg.Kind {
		case SegmentClaimIndex:
			next, ok = current.Index(claimIdx)
		case SegmentActivityIndex:
			next, ok = current.Index(activityIdx)
		default:
			next, ok = current.Field(seg.Key)
		}

		if !ok {
			return nil
		}
		current = next
	}
	return current.Value()
}

// level is 0 for document paths, 1 for claim paths and 2 for activity paths
func (p FieldPath) level() int {
	level := 0
	for _, s := range p {
		switch s.Kind {
		case SegmentClaimIndex:
			level = max(level, 1)
		case SegmentActivityIndex:
			level = 2
		}
	}
	return level
}

// Header names one output column and where its value lives
type Header struct {
	Name string
	Path FieldPath
}

// HeaderMap is the ordered column layout of the remittance table.
// Order here is column order in every exported sheet.
var HeaderMap = []Header{
	{"SenderID", Path(Key("Remittance"), Key("Header"), Key("SenderID"))},
	{"ReceiverID", Path(Key("Remittance"), Key("Header"), Key("ReceiverID"))},
	{"TransactionDate", Path(Key("Remittance"), Key("Header"), Key("TransactionDate"))},
	{"RecordCount", Path(Key("Remittance"), Key("Header"), Key("RecordCount"))},
	{"DispositionFlag", Path(Key("Remittance"), Key("Header"), Key("DispositionFlag"))},
	{"PayerID", Path(Key("Remittance"), Key("Header"), Key("PayerID"))},
	{"ClaimID", claimPath("ID")},
	{"IDPayer", claimPath("IDPayer")},
	{"ProviderID", claimPath("ProviderID")},
	{"PaymentReference", claimPath("PaymentReference")},
	{"DateSettlement", claimPath("DateSettlement")},
	{"FacilityID", claimPath("Encounter", "FacilityID")},
	{"ActivityID", activityPath("ID")},
	{"Start", activityPath("Start")},
	{"Type", activityPath("Type")},
	{"Code", activityPath("Code")},
	{"Quantity", activityPath("Quantity")},
	{"Net", activityPath("Net")},
	{"Clinician", activityPath("Clinician")},
	{"Gross", activityPath("Gross")},
	{"PatientShare", activityPath("PatientShare")},
	{"PaymentAmount", activityPath("PaymentAmount")},
	{"DenialCode", activityPath("DenialCode")},
	{"Comments", activityPath("Comments")},
	{"PriorAuthorizationID", activityPath("PriorAuthorizationID")},
}

func claimPath(keys ...string) FieldPath {
	p := Path(Key("Remittance"), Key("Claim"), ClaimIndex)
	for _, k := range keys {
		p = append(p, Key(k))
	}
	return p
}

func activityPath(keys ...string) FieldPath {
	p := claimPath("Activity")
	p = append(p, ActivityIndex)
	for _, k := range keys {
		p = append(p, Key(k))
	}
	return p
}

// ColumnNames returns every HeaderMap name in order
func ColumnNames() []string {
	names := make([]string, len(HeaderMap))
	for i, h := range HeaderMap {
		names[i] = h.Name
	}
	return names
}

// ClaimColumnNames returns the HeaderMap names that do not depend on an activity
func ClaimColumnNames() []string {
	var names []string
	for _, h := range HeaderMap {
		if !h.Path.IsActivityLevel() {
			names = append(names, h.Name)
		}
	}
	return names
}
