// Package transforms provides line transforms for corpus preparation that plug into
// the linewise engine: a text cleaner, a dictionary lemmatizer and an identity transform.
//
// Every constructor returns a linewise.Factory. The engine calls it once per worker, so
// per-instance state (case mappers, lookup caches) is never shared between goroutines.
package transforms
