// Package sanitizer normalizes caller-supplied identifiers and free text before validation.
//
// All functions are idempotent: applying them twice gives the same result as once. They never
// fail; input that cannot be normalized comes back empty or unchanged and is rejected later by
// validation.
package sanitizer
