package dashboard

import "strings"

// TopicMatches reports whether topic matches an MQTT subscription filter.
// "+" matches exactly one level and a trailing "#" matches the parent level
// and everything below it. Wildcards at the first level do not match topics
// starting with "$".
func TopicMatches(filter, topic string) bool {
	if filter == "" || topic == "" {
		return false
	}
	if strings.HasPrefix(topic, "$") && (strings.HasPrefix(filter, "+") || strings.HasPrefix(filter, "#")) {
		return false
	}
	fl := strings.Split(filter, "/")
	tl := strings.Split(topic, "/")
	for i, f := range fl {
		if f == "#" {
			return i == len(fl)-1
		}
		if i >= len(tl) {
			return false
		}
		if f != "+" && f != tl[i] {
			return false
		}
	}
	return len(fl) == len(tl)
}
