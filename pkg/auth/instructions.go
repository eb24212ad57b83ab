package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCookieExtractionGuide writes step-by-step instructions for copying the
// session cookies out of a browser
func ShowCookieExtractionGuide(w io.Writer) {
	line := strings.Repeat("=", 80)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "XIAOHONGSHU COOKIE EXTRACTION GUIDE")
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "xhscrawl talks to the web API with the cookies of a logged-in browser session.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 1: Log in")
	fmt.Fprintln(w, "   - Open https://www.xiaohongshu.com and log in (scan the QR code with the app)")
	fmt.Fprintln(w, "   - Make sure the explore feed loads")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 2: Open Developer Tools")
	fmt.Fprintln(w, "   - Chrome/Edge/Firefox: F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 3: Copy the Cookie header")
	fmt.Fprintln(w, "   1. Go to the Network tab and refresh the page")
	fmt.Fprintln(w, "   2. Click any request to edith.xiaohongshu.com")
	fmt.Fprintln(w, "   3. Under Request Headers, copy the whole value of 'Cookie:'")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "   The value must contain %s.\n", strings.Join(RequiredCookies, " and "))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "TIPS:")
	fmt.Fprintln(w, "   - Sessions expire; run 'xhscrawl auth login' again when requests start failing with 401")
	fmt.Fprintln(w, "   - Set XHSCRAWL_COOKIES instead to use a session without saving it")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "SECURITY WARNING:")
	fmt.Fprintln(w, "   - These cookies give full access to your account. Never share them.")
	fmt.Fprintln(w, "   - Saved sessions go to the system keychain, or an encrypted file when none is available.")
	fmt.Fprintln(w, line)
}

// ShowQuickExtractGuide writes a one-line reminder of the guide
func ShowQuickExtractGuide(w io.Writer) {
	fmt.Fprintln(w, "\nQuick guide: F12 -> Network -> refresh -> any edith.xiaohongshu.com request -> Headers -> Cookie")
	fmt.Fprintf(w, "   Need: %s. Type 'help' for detailed instructions\n", strings.Join(RequiredCookies, ", "))
}
