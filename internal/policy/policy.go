// Package policy is the authorization layer for Keep. Every read or write of an
// inventory entity is decided here from the acting principal and the owning
// principal of the record, which is either stored on the record or derived from
// the asset it references.
package policy

import (
	"errors"
	"strings"
)

// ErrDenied is the single outcome of a failed check. Missing records and records
// owned by someone else both produce it.
var ErrDenied = errors.New("access denied")

type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

var Operations = []Operation{OpCreate, OpRead, OpUpdate, OpDelete}

type Entity string

const (
	EntityProfile     Entity = "profile"
	EntityAsset       Entity = "asset"
	EntityCategory    Entity = "category"
	EntityAssignment  Entity = "asset_assignment"
	EntityNote        Entity = "asset_note"
	EntityInsurance   Entity = "asset_insurance"
	EntityDocument    Entity = "asset_document"
	EntityPhoto       Entity = "asset_photo"
	EntityTheftReport Entity = "theft_report"
)

var Entities = []Entity{
	EntityProfile,
	EntityAsset,
	EntityCategory,
	EntityAssignment,
	EntityNote,
	EntityInsurance,
	EntityDocument,
	EntityPhoto,
	EntityTheftReport,
}

// Principal is the actor behind a request. The zero value is anonymous.
type Principal struct {
	ID   string
	Role string
}

func Anonymous() Principal {
	return Principal{}
}

func (p Principal) Authenticated() bool {
	return strings.TrimSpace(p.ID) != ""
}

// Record carries the fields of an entity instance (or of the values a create
// intends to write) that ownership depends on.
type Record struct {
	ID string
	// OwnerID is the stored owner column. Empty means the column is null or the
	// entity has none.
	OwnerID string
	// AssetID is the parent asset for dependent entities.
	AssetID string
}

type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}
