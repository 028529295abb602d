// Package translation loads the column translation map used to build
// views. A missing mapping file is never an error: the loader falls back
// to a configured default file and finally to an empty map.
package translation
