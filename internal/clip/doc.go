// Package clip models sign clips and retrieves them.
//
// A Clip is the ordered frames for one token, each frame carrying its own
// duration so the frame and duration lists can never drift apart. Fetcher
// pulls GIF bytes from a Source, composites the animation, and runs every
// frame through the frame normalizer. Fetch never returns an error; missing
// or broken clips come back empty and are reported through the logger.
package clip
