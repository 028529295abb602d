// Package filter implements the optional value filters applied to a
// normalized table before it is merged: decade scale correction, duplicate
// row removal and mean interpolation of missing values.
package filter
