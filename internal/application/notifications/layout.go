package notifications

import (
	"fmt"
	"strings"
	"time"
)

const (
	themePrimary   = "#4F46E5"
	themeTextMain  = "#1F2937"
	themeTextMuted = "#6B7280"
	themeBgBody    = "#F3F4F6"
	themeWhite     = "#FFFFFF"
)

// EmailLayout wraps content in the shared notification layout.
func EmailLayout(contentHTML string) string {
	year := time.Now().Year()
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>IdeaNest</title>
  <style>
    body { margin: 0; padding: 0; width: 100%% !important; background-color: %s; }
    body, td, p, a { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .content-body p { margin: 0 0 24px 0; font-size: 16px; line-height: 1.6; }
    .content-body h1 { font-size: 22px; margin: 0 0 20px 0; }
    .nest-button { display: inline-block; background-color: %s; color: #ffffff !important; padding: 12px 32px; text-decoration: none !important; border-radius: 6px; font-weight: 600; }
    .footer-text { color: %s; font-size: 13px; }
  </style>
</head>
<body style="background-color: %s;">
  <table role="presentation" width="100%%" border="0" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table role="presentation" width="600" border="0" cellspacing="0" cellpadding="0" style="background-color: %s; border-radius: 8px;">
          <tr>
            <td class="content-body" style="padding: 40px 48px 30px 48px;">%s</td>
          </tr>
          <tr>
            <td align="center" style="padding: 0 48px 32px 48px;">
              <p class="footer-text">© %d IdeaNest. Questions? <a href="mailto:support@ideanest.app">support@ideanest.app</a></p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, themeBgBody, themeTextMain, themePrimary, themeTextMuted, themeBgBody, themeWhite, contentHTML, year)
}

// EscapeHTML escapes HTML specials for safe interpolation.
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
