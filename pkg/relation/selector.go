package relation

import (
	"k8s.io/apimachinery/pkg/labels"
)

// Matches reports whether every selector key maps to an equal value in the
// label set. An empty selector matches nothing.
func Matches(selector, podLabels map[string]string) bool {
	if len(selector) == 0 {
		return false
	}
	return labels.SelectorFromSet(selector).Matches(labels.Set(podLabels))
}
