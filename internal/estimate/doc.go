// Package estimate combines a probability estimate with a trend prediction
// for one market.
//
// Both collaborators run concurrently under a shared timeout. A collaborator
// failure does not cancel the other. Whether a failed trend prediction fails
// the estimate or degrades to a neutral placeholder is a Combiner option.
package estimate
