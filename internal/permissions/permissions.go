// Package permissions holds the access policies for the API as ordered
// lists of named rules. A rule inspects the request and either decides
// (Allow/Deny) or defers to the next rule. The safe-method rule always
// runs first so that anonymous reads never touch actor attributes.
package permissions

import (
	"errors"
	"net/http"

	"reviewhub/proj/internal/domain/models"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrForbidden              = errors.New("insufficient permissions")
)

type Decision int

const (
	Defer Decision = iota
	Allow
	Deny
)

// Request is the slice of an HTTP request a policy decides on. OwnerID is
// only meaningful for object-level policies and holds the author of the
// resource under mutation.
type Request struct {
	Method  string
	Actor   *models.User
	OwnerID int64
}

type Rule struct {
	Name  string
	Check func(req Request) Decision
}

// Policy is an ordered rule list. The first non-Defer decision wins;
// a policy that fully defers denies.
type Policy []Rule

// Evaluate runs the policy and returns nil on Allow. A denial against an
// anonymous actor is an authentication failure, otherwise an
// authorization failure.
func (p Policy) Evaluate(req Request) error {
	for _, rule := range p {
		switch rule.Check(req) {
		case Allow:
			return nil
		case Deny:
			return denialError(req)
		}
	}
	return denialError(req)
}

func denialError(req Request) error {
	if req.Actor.IsAnonymous() {
		return ErrAuthenticationRequired
	}
	return ErrForbidden
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func allowSafeMethods(req Request) Decision {
	if isSafeMethod(req.Method) {
		return Allow
	}
	return Defer
}

func denyAnonymous(req Request) Decision {
	if req.Actor.IsAnonymous() {
		return Deny
	}
	return Defer
}

func allowAdmin(req Request) Decision {
	if req.Actor.IsAdmin() {
		return Allow
	}
	return Defer
}

func allowModerator(req Request) Decision {
	if req.Actor.IsModerator() {
		return Allow
	}
	return Defer
}

func allowOwner(req Request) Decision {
	if req.Actor.ID == req.OwnerID {
		return Allow
	}
	return Defer
}

func allowAuthenticated(req Request) Decision {
	return Allow
}

// CatalogWrite gates category, genre and title mutations: reads are open,
// writes are admin only.
var CatalogWrite = Policy{
	{"read-only", allowSafeMethods},
	{"authenticated", denyAnonymous},
	{"admin", allowAdmin},
}

// ReviewMutate is the collection-level gate for reviews and comments:
// reads are open, creating requires authentication.
var ReviewMutate = Policy{
	{"read-only", allowSafeMethods},
	{"authenticated", denyAnonymous},
	{"any-user", allowAuthenticated},
}

// ReviewObject is the object-level gate for a specific review or comment:
// only the author, a moderator or an admin may mutate it.
var ReviewObject = Policy{
	{"read-only", allowSafeMethods},
	{"authenticated", denyAnonymous},
	{"owner", allowOwner},
	{"moderator", allowModerator},
	{"admin", allowAdmin},
}

// AdminOnly gates user administration, reads included.
var AdminOnly = Policy{
	{"authenticated", denyAnonymous},
	{"admin", allowAdmin},
}
