package utils

import (
	"testing"

	"phishlab/models"

	"github.com/stretchr/testify/assert"
)

func TestClassifyUserAgent(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want models.ClientInfo
	}{
		{
			name: "iphone safari",
			ua:   "Mozilla/5.0 (iPhone; CPU iPhone OS) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604",
			want: models.ClientInfo{OS: "iOS", Browser: "Safari", Device: DeviceMobile},
		},
		{
			name: "windows chrome",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			want: models.ClientInfo{OS: "Windows", Browser: "Chrome", Device: DeviceDesk},
		},
		{
			name: "windows edge",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36 Edg/120.0",
			want: models.ClientInfo{OS: "Windows", Browser: "Edge", Device: DeviceDesk},
		},
		{
			name: "android chrome",
			ua:   "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Mobile Safari/537.36",
			want: models.ClientInfo{OS: "Android", Browser: "Chrome", Device: DeviceMobile},
		},
		{
			name: "mac firefox",
			ua:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 14.1; rv:121.0) Gecko/20100101 Firefox/121.0",
			want: models.ClientInfo{OS: "macOS", Browser: "Firefox", Device: DeviceDesk},
		},
		{
			name: "linux internet explorer token",
			ua:   "Mozilla/5.0 (X11; Linux x86_64; Trident/7.0)",
			want: models.ClientInfo{OS: "Linux", Browser: "Internet Explorer", Device: DeviceDesk},
		},
		{
			name: "legacy opera",
			ua:   "Opera/9.80 (X11; Linux i686) Presto/2.12.388 Version/12.16",
			want: models.ClientInfo{OS: "Linux", Browser: "Opera", Device: DeviceDesk},
		},
		{
			name: "empty",
			ua:   "",
			want: models.ClientInfo{OS: UnknownValue, Browser: UnknownValue, Device: DeviceDesk},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyUserAgent(tt.ua))
		})
	}
}
