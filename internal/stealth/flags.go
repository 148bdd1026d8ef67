// Package stealth implements the undetected-mode launch flags and JavaScript
// patches that suppress the standard automation fingerprints Chromium exposes
// when driven over CDP.
package stealth

// Flags returns the Chromium arguments that undetected mode adds on top of
// the regular launch flag set. They remove the automation infobar, the
// navigator.webdriver blink feature and the throttling behaviors that
// fingerprinting scripts probe for.
func Flags() []string {
	return []string{
		"--disable-blink-features=AutomationControlled",
		"--no-default-browser-check",
		"--no-first-run",
		"--disable-infobars",
		"--disable-background-timer-throttling",
		"--disable-backgrounding-occluded-windows",
		"--disable-renderer-backgrounding",
		"--disable-hang-monitor",
		"--disable-prompt-on-repost",
		"--disable-sync",
		"--disable-features=IsolateOrigins,site-per-process,TranslateUI",
		"--password-store=basic",
		"--use-mock-keychain",
	}
}

// ExcludedSwitches lists default Chromium switches that must NOT appear on the
// command line in undetected mode. The launcher filters these out of any
// user-supplied argument list.
func ExcludedSwitches() []string {
	return []string{
		"--enable-automation",
		"--enable-blink-features=IdleDetection",
	}
}
