// Package extract pulls operation parameters out of prompt text.
//
// Every extractor is a pure function of the prompt. Patterns are
// case-insensitive and run over the trimmed, NFC-normalized prompt so
// identifiers and names keep the case the user typed. A required value
// that is absent yields a *MissingError.
package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// MissingError reports a required parameter absent from the prompt.
type MissingError struct {
	Param string
}

// Error implements the error interface.
func (e *MissingError) Error() string {
	return fmt.Sprintf("missing parameter: %s", e.Param)
}

// Parameter names reported in MissingError.
const (
	ParamOrderID    = "order_id"
	ParamField      = "field"
	ParamService    = "service"
	ParamClientName = "client_name"
	ParamClassName  = "class_name"
	ParamStatus     = "status"
)

// Word characters include every Unicode letter and digit, so names such
// as "Café Yoga" survive extraction intact.
var (
	// order ABC123, order #ABC123
	orderIDPattern = regexp.MustCompile(`(?i)order #?([\p{L}\p{N}_]+)`)

	// name Priya, email priya@example.com, phone 98200
	fieldValuePattern = regexp.MustCompile(`(?i)\b(name|email|phone)\s+(\S+)`)

	// ... client Priya Sharma
	clientNamePattern = regexp.MustCompile(`(?i)client\s+(.+)`)

	// attendance percentage for Power Yoga
	classNamePattern = regexp.MustCompile(`(?i)attendance percentage for ([\p{L}\p{N}_\s]+)`)

	// instructor Anita
	instructorPattern = regexp.MustCompile(`(?i)instructor\s+([\p{L}\p{N}_]+)`)

	createOrderPhrase   = regexp.MustCompile(`(?i)create an order`)
	forWord             = regexp.MustCompile(`(?i)\bfor\b`)
	createEnquiryPhrase = regexp.MustCompile(`(?i)create enquiry(\s+for\b)?`)
	contactPattern      = regexp.MustCompile(`(?i)\b(email|phone)\s+(\S+)`)
)

// OrderID returns the token following "order" (optionally "#").
func OrderID(prompt string) (string, error) {
	m := orderIDPattern.FindStringSubmatch(prompt)
	if m == nil {
		return "", &MissingError{Param: ParamOrderID}
	}
	return m[1], nil
}

// FieldValue returns the first "<field> <value>" pair with field one of
// name, email or phone. The field is returned lower-case.
func FieldValue(prompt string) (field, value string, err error) {
	m := fieldValuePattern.FindStringSubmatch(prompt)
	if m == nil {
		return "", "", &MissingError{Param: ParamField}
	}
	return strings.ToLower(m[1]), m[2], nil
}

// OrderRequest splits "create an order <service> for <client>" at the
// last standalone "for". Both parts are trimmed; an absent delimiter or
// an empty client part is a missing parameter.
func OrderRequest(prompt string) (service, client string, err error) {
	rest := createOrderPhrase.ReplaceAllString(prompt, "")

	locs := forWord.FindAllStringIndex(rest, -1)
	if locs == nil {
		return "", "", &MissingError{Param: ParamClientName}
	}
	last := locs[len(locs)-1]
	service = strings.TrimSpace(rest[:last[0]])
	client = strings.TrimSpace(rest[last[1]:])
	if client == "" {
		return "", "", &MissingError{Param: ParamClientName}
	}
	return service, client, nil
}

// Enquiry holds the contact details of an enquiry prompt.
type Enquiry struct {
	Name  string
	Email string
	Phone string
}

// EnquiryRequest strips "create enquiry for" and pulls optional
// "email <value>" and "phone <value>" pairs; the remainder is the name.
// The name may be empty.
func EnquiryRequest(prompt string) Enquiry {
	rest := createEnquiryPhrase.ReplaceAllString(prompt, "")

	var e Enquiry
	for _, m := range contactPattern.FindAllStringSubmatch(rest, -1) {
		switch strings.ToLower(m[1]) {
		case "email":
			if e.Email == "" {
				e.Email = m[2]
			}
		case "phone":
			if e.Phone == "" {
				e.Phone = m[2]
			}
		}
	}
	rest = contactPattern.ReplaceAllString(rest, "")
	e.Name = strings.Join(strings.Fields(rest), " ")
	return e
}

// ClientName returns everything after the first "client ".
func ClientName(prompt string) (string, error) {
	m := clientNamePattern.FindStringSubmatch(prompt)
	if m == nil {
		return "", &MissingError{Param: ParamClientName}
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return "", &MissingError{Param: ParamClientName}
	}
	return name, nil
}

// ClassName returns the class after "attendance percentage for", up to
// the first character that is neither a word character nor whitespace.
func ClassName(prompt string) (string, error) {
	m := classNamePattern.FindStringSubmatch(prompt)
	if m == nil {
		return "", &MissingError{Param: ParamClassName}
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return "", &MissingError{Param: ParamClassName}
	}
	return name, nil
}

// Instructor returns the word after "instructor", if any.
func Instructor(prompt string) (string, bool) {
	m := instructorPattern.FindStringSubmatch(prompt)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ClassStatus returns "completed" or "scheduled" when the prompt mentions
// one, checked in that order.
func ClassStatus(prompt string) (string, bool) {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "completed"):
		return "completed", true
	case strings.Contains(lower, "scheduled"):
		return "scheduled", true
	default:
		return "", false
	}
}

// OrderStatus returns "pending" or "paid", checked in that order.
func OrderStatus(prompt string) (string, error) {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "pending"):
		return "pending", nil
	case strings.Contains(lower, "paid"):
		return "paid", nil
	default:
		return "", &MissingError{Param: ParamStatus}
	}
}
