// Package server contains the route table and payload plumbing shared by
// the HTTP wrappers.
package server

import (
	"encoding/json"
	"go/types"
	"log"
	"net/http"

	"github.com/go-chi/chi"
	"goji.io/pat"
)

// HumanPayload is a union of the basic types an HTTP response may carry.
// T selects which field is populated.
type HumanPayload struct {
	// T is the type of the payload
	T types.BasicKind

	// Bool holds a bool
	Bool bool

	// Int holds an int
	Int int

	// Float holds a float64
	Float float64

	// String holds a string
	String string
}

// EncodeAndRespond writes the payload to w as JSON with the key the
// matching *T struct uses, so clients round trip values symmetrically.
func (hp HumanPayload) EncodeAndRespond(w http.ResponseWriter, r *http.Request) {
	var obj interface{}
	switch hp.T {
	case types.Bool:
		obj = BoolT{Bool: hp.Bool}
	case types.Int:
		obj = IntT{Int: hp.Int}
	case types.Float64:
		obj = FloatT{F64: hp.Float}
	case types.String:
		obj = StrT{Str: hp.String}
	default:
		http.Error(w, "payload type unknown to the server", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		log.Printf("server: encoding payload to json: %v", err)
	}
}

// FloatT is a struct with a single float64 field for json IO
type FloatT struct {
	F64 float64 `json:"f64"`
}

// IntT is a struct with a single int field for json IO
type IntT struct {
	Int int `json:"int"`
}

// StrT is a struct with a single string field for json IO
type StrT struct {
	Str string `json:"str"`
}

// BoolT is a struct with a single bool field for json IO
type BoolT struct {
	Bool bool `json:"bool"`
}

// RouteTable maps goji patterns to handlers.
type RouteTable map[*pat.Pattern]http.HandlerFunc

// Endpoints lists the pattern strings in the table.
func (rt RouteTable) Endpoints() []string {
	routes := make([]string, 0, len(rt))
	for p := range rt {
		routes = append(routes, p.String())
	}
	return routes
}

// Bind attaches every route in the table to the router.  Patterns with no
// method restriction answer all methods.
func (rt RouteTable) Bind(r chi.Router) {
	for p, handler := range rt {
		methods := p.HTTPMethods()
		if methods == nil {
			r.Handle(p.String(), handler)
			continue
		}
		for method := range methods {
			r.Method(method, p.String(), handler)
		}
	}
}

// HTTPer is an object which can expose a route table of its HTTP methods.
type HTTPer interface {
	// RT yields the route table, to be modified or bound to a router
	RT() RouteTable
}
