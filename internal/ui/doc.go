// Package ui renders publication progress for people at a terminal: stage
// transitions, upload progress and the anchoring outcome of each chain.
// Machine-readable detail goes to the zap logger instead.
package ui
