package templates

import (
	"fmt"
	"net/url"
)

func openURL(index int) string {
	return fmt.Sprintf("/ui/cards/%d/open", index)
}

func cardErrorURL(index int, src string) string {
	return fmt.Sprintf("/ui/cards/%d/error?src=%s", index, url.QueryEscape(src))
}

func cardLoadedURL(index int, src string) string {
	return fmt.Sprintf("/ui/cards/%d/loaded?src=%s", index, url.QueryEscape(src))
}

func viewerErrorURL(gen int, src string) string {
	return fmt.Sprintf("/ui/viewer/error?gen=%d&src=%s", gen, url.QueryEscape(src))
}

// report is an inline handler posting to u and swapping the answer over
// target.
func report(u, target string) string {
	return fmt.Sprintf("htmx.ajax('POST', '%s', {target: '%s', swap: 'outerHTML'})", u, target)
}

func cardID(index int) string {
	return fmt.Sprintf("card-%d", index)
}
