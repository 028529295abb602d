// Package views generates translated views over the raw and clean tiers.
//
// For a stored table Sales Q1 whose columns intersect the translation
// map, the views raw.V_Sales_Q1 and clean.V_Sales_Q1 expose the
// translated columns under their display names.
package views
