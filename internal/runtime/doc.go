// Package runtime holds the positional state engine: the entity registry, the marker
// index and the replay that folds markers into attribute trees.
package runtime
