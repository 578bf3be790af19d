// Package nav decides how anchor clicks are handled without a full page
// reload: pure in-page hashes always stay on the page, and links back to the
// home page turn into a scroll when the home page is already shown.
package nav

import "strings"

const homePage = "index.html"

type Action struct {
	// Intercept means the default navigation is suppressed.
	Intercept bool
	// PushState is the history entry to push, e.g. "#shop".
	PushState string
	// ScrollTo is the element id to scroll into view; "" means no scroll.
	ScrollTo string
}

func IsHomePath(pathname string) bool {
	return pathname == "/" || strings.HasSuffix(pathname, homePage)
}

// ScrollTarget returns the element id named by hash, or "" for an empty hash.
func ScrollTarget(hash string) string {
	if hash == "" || hash == "#" {
		return ""
	}
	return strings.TrimPrefix(hash, "#")
}

func Intercept(currentPath, href string) Action {
	if href == "" {
		return Action{}
	}

	if strings.HasPrefix(href, "#") {
		return Action{Intercept: true, PushState: href, ScrollTo: ScrollTarget(href)}
	}

	if !IsHomePath(currentPath) {
		return Action{}
	}

	if href == homePage {
		return Action{Intercept: true, PushState: "#top", ScrollTo: "top"}
	}
	if strings.HasPrefix(href, homePage+"#") {
		hash := strings.TrimPrefix(href, homePage)
		return Action{Intercept: true, PushState: hash, ScrollTo: ScrollTarget(hash)}
	}
	return Action{}
}

// OnLoad is the scroll performed when a page opens with a hash, e.g. after
// a redirect to index.html#shop.
func OnLoad(hash string) string {
	return ScrollTarget(hash)
}
