package utils

import (
	"strings"

	"phishlab/models"
)

const (
	UnknownValue = "Unknown"
	DeviceMobile = "Mobile/Tablet"
	DeviceDesk   = "Desktop"
)

// uaRule matches when one of any is present and none of not is
type uaRule struct {
	name string
	any  []string
	not  []string
}

func (r uaRule) match(ua string) bool {
	for _, token := range r.not {
		if strings.Contains(ua, token) {
			return false
		}
	}
	for _, token := range r.any {
		if strings.Contains(ua, token) {
			return true
		}
	}
	return false
}

// Order matters: Android reports Linux, iOS reports "like Mac OS X"
var osRules = []uaRule{
	{name: "Windows", any: []string{"Windows"}},
	{name: "Android", any: []string{"Android"}},
	{name: "iOS", any: []string{"iPhone", "iPad", "iPod", "iOS"}},
	{name: "macOS", any: []string{"Macintosh", "Mac OS X"}},
	{name: "Linux", any: []string{"Linux"}},
}

var browserRules = []uaRule{
	{name: "Chrome", any: []string{"Chrome"}, not: []string{"Edg"}},
	{name: "Firefox", any: []string{"Firefox"}},
	{name: "Safari", any: []string{"Safari"}, not: []string{"Chrome"}},
	{name: "Edge", any: []string{"Edg"}},
	{name: "Internet Explorer", any: []string{"MSIE", "Trident"}},
	{name: "Opera", any: []string{"Opera", "OPR"}},
}

var mobileTokens = []string{"mobile", "android", "iphone", "ipad", "ipod", "tablet"}

func firstMatch(rules []uaRule, ua string) string {
	for _, rule := range rules {
		if rule.match(ua) {
			return rule.name
		}
	}
	return UnknownValue
}

// ClassifyUserAgent maps a raw User-Agent header to OS, browser and device
// class.
func ClassifyUserAgent(ua string) models.ClientInfo {
	info := models.ClientInfo{
		OS:      firstMatch(osRules, ua),
		Browser: firstMatch(browserRules, ua),
		Device:  DeviceDesk,
	}

	lower := strings.ToLower(ua)
	for _, token := range mobileTokens {
		if strings.Contains(lower, token) {
			info.Device = DeviceMobile
			break
		}
	}
	return info
}
