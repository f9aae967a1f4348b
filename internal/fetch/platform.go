package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known job board or applicant tracking system.
type Platform string

const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformWantedly   Platform = "wantedly"
	PlatformGreen      Platform = "green"
	PlatformHRMOS      Platform = "hrmos"
	PlatformHerp       Platform = "herp"
	PlatformUnknown    Platform = "unknown"
)

var platformHosts = []struct {
	suffix   string
	platform Platform
}{
	{"greenhouse.io", PlatformGreenhouse},
	{"lever.co", PlatformLever},
	{"myworkdayjobs.com", PlatformWorkday},
	{"workday.com", PlatformWorkday},
	{"wantedly.com", PlatformWantedly},
	{"green-japan.com", PlatformGreen},
	{"hrmos.co", PlatformHRMOS},
	{"herp.careers", PlatformHerp},
}

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(parsed.Hostname())
	for _, p := range platformHosts {
		if host == p.suffix || strings.HasSuffix(host, "."+p.suffix) {
			return p.platform
		}
	}
	return PlatformUnknown
}

// RequiresBrowser reports whether the platform is known to render its
// postings client-side.
func RequiresBrowser(platform Platform) bool {
	switch platform {
	case PlatformWorkday, PlatformWantedly:
		return true
	default:
		return false
	}
}

// PlatformContentSelectors returns content selectors for a specific platform.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformGreenhouse:
		return []string{
			".job__description.body",
			".job__description",
			".job-description__content",
			"#content",
			".job-post-container",
		}
	case PlatformLever:
		return []string{
			".posting-page",
			".section-wrapper.page-full-width",
			".posting-description",
			".content",
		}
	case PlatformWorkday:
		return []string{
			"[data-automation-id='jobDescription']",
			".job-description",
		}
	case PlatformWantedly:
		return []string{
			"[data-testid='project-detail']",
			"section[class*='ProjectDescription']",
			"main",
		}
	case PlatformGreen:
		return []string{
			".job-offer-main-content",
			".com_content",
			"main",
		}
	case PlatformHRMOS:
		return []string{
			".pg-job-description",
			".sg-job-description",
			"main",
		}
	case PlatformHerp:
		return []string{
			"[class*='JobDescription']",
			"main",
		}
	default:
		return JobPostingSelectors()
	}
}

// PlatformNoiseSelectors returns noise exclusion selectors for a platform.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		"form",
		"#application-form",
		".application-form",
		".apply-button-container",
		"[data-testid='application-form']",
		".social-share",
		".share-buttons",
		".cookie-banner",
		".cookie-consent",
		".gdpr-notice",
	}

	switch platform {
	case PlatformGreenhouse:
		return append(common,
			".application--wrapper",
			".voluntary-self-id",
			"#usa_self_id_section",
		)
	case PlatformLever:
		return append(common,
			".apply-section",
			".posting-apply",
		)
	case PlatformWorkday:
		return append(common,
			"[data-automation-id='applyButton']",
		)
	case PlatformWantedly:
		return append(common,
			"[class*='EntryButton']",
			"[class*='RecommendedProjects']",
		)
	default:
		return common
	}
}
