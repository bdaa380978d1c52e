// Package intent classifies prompts and carries handler outcomes.
//
// A Table is an ordered list of Routes. Dispatch normalizes the prompt,
// runs the first Route whose matcher accepts it and returns the handler's
// Result. Route order encodes disambiguation priority: a prompt that
// satisfies several matchers always goes to the earliest one.
//
// Matchers are plain substring tests built from Has, AllOf and AnyOf.
// Nothing counts matches or ranks routes by specificity.
package intent
