// Package model defines the language capability interface consumed by the
// agent layers, the normalized tool schema and tool-choice types, and the
// token-budget failure that callers must be able to distinguish from all
// other errors. Provider adapters live in the subpackages anthropic and
// openai; MockModel supports tests.
package model
