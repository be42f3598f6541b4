// Package domain contains the core domain entities and value objects for keyframer.
//
// This package represents the innermost layer of the application. It has no
// dependencies on infrastructure concerns (ffmpeg, file system, logging) and
// contains only the value types shared by the hashing, selection and lookup
// layers.
//
// # Entities
//
//   - [Frame]: A decoded video frame with its 0-based capture index
//   - [HashValue]: A method-tagged perceptual hash (bit vector or feature vector)
//   - [KeyframeRecord]: One persisted keyframe of one video
//   - [StoreDocument]: The on-disk document holding a video's keyframes
//
// # Design Principles
//
// Domain values are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Comparable only within the same hash method
package domain
