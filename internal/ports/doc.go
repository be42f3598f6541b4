// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [FrameSource]: Yields decoded frames of one video
//   - [FrameSourceOpener]: Opens a video file or frame directory
//   - [StoreRepository]: Persists and loads keyframe store documents
//   - [KeyframeImageWriter]: Saves keyframe images named by hash
//   - [Logger]: Structured logging abstraction
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with ffmpeg,
// the file system, SQLite and zerolog.
package ports
