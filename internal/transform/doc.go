// Package transform produces short portrait clips from long-form source
// video by driving ffmpeg as an external batch tool.
package transform
