// Package sanitizer provides input normalization functions for property
// and room data.
//
// All normalization functions are idempotent - applying them multiple
// times produces the same result. Functions handle invalid input
// gracefully, typically by returning empty strings or empty slices
// rather than errors.
//
// Normalization includes:
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Room codes: Lowercase, keep letters/digits, join runs with underscores
//   - URLs: Enforce HTTPS, lowercase domains, preserve paths
//   - Slices: Remove duplicates and empty values after normalization
package sanitizer
