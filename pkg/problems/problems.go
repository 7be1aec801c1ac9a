// Package problems turns verification defects into RFC 7807 Problem
// Details, and accumulates them across a single verification run so the
// caller gets one structured result instead of a first-failure error.
package problems

import (
	"fmt"

	"github.com/moogar0880/problems"
)

// TypeBase is the URI prefix every problem type URI in this package is
// rooted under.
const TypeBase = "https://vc-trust.example/problems/"

// Category enumerates the verification stages a problem can originate
// from. The verifier core reports exactly these categories; a consumer
// reading the aggregate result can bucket failures by stage without parsing
// free-text detail strings.
type Category string

const (
	CategoryEnvelope      Category = "envelope"
	CategorySignature     Category = "signature"
	CategoryTimeClaims    Category = "time_claims"
	CategoryNonce         Category = "nonce"
	CategoryAudience      Category = "audience"
	CategoryConfirmation  Category = "confirmation_key"
	CategoryIssuerBinding Category = "issuer_binding"
	CategoryKeyResolution Category = "key_resolution"
	CategorySchema        Category = "schema"
)

// Problem wraps problems.Problem with the Category this core assigns it.
type Problem struct {
	*problems.Problem
	Category Category
}

// New builds a Problem in the given category. status follows the RFC 7807
// convention of reusing an HTTP status code as a coarse severity/class
// marker, even though no HTTP transport is involved. The verifier uses 400
// for malformed input and for key-resolution, signature and issuer-binding
// failures, 403 for a confirmation-key mismatch, and 422 for time-claim and
// schema violations.
func New(category Category, title, detail string, status int) *Problem {
	p := problems.NewDetailedProblem(status, detail)
	p.Type = TypeBase + string(category)
	p.Title = title
	return &Problem{Problem: p, Category: category}
}

// Result accumulates every Problem found during one verification run. A
// zero-value Result is ready to use.
type Result struct {
	Problems []*Problem
}

// Add appends a problem to the result.
func (r *Result) Add(p *Problem) {
	r.Problems = append(r.Problems, p)
}

// Addf is a convenience for New followed by Add.
func (r *Result) Addf(category Category, title string, status int, format string, args ...any) {
	r.Add(New(category, title, fmt.Sprintf(format, args...), status))
}

// OK reports whether no problems were recorded.
func (r *Result) OK() bool {
	return len(r.Problems) == 0
}

// ByCategory filters the accumulated problems down to one category.
func (r *Result) ByCategory(category Category) []*Problem {
	var out []*Problem
	for _, p := range r.Problems {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}
