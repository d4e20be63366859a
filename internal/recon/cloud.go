package recon

import (
	"net"
	"strings"
)

// cloudSuffixes are provider zones whose names usually sit in front of another
// provider-side CNAME worth reporting.
var cloudSuffixes = []string{
	".amazonaws.com",
	".cloudfront.net",
	".elasticbeanstalk.com",
	".azurewebsites.net",
	".cloudapp.net",
	".cloudapp.azure.com",
	".trafficmanager.net",
	".blob.core.windows.net",
	".azureedge.net",
	".appspot.com",
	".googleapis.com",
	".herokuapp.com",
	".github.io",
	".netlify.app",
	".fastly.net",
	".pantheonsite.io",
}

// CloudHosted reports whether value is a hostname inside a known cloud
// provider zone. IP addresses never match.
func CloudHosted(value string) bool {
	v := normalizeName(value)
	if v == "" || net.ParseIP(v) != nil {
		return false
	}
	for _, suffix := range cloudSuffixes {
		if strings.HasSuffix(v, suffix) {
			return true
		}
	}
	return false
}
