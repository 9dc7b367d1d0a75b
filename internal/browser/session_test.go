package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const emulationPage = `<!doctype html>
<html><head><title>probe</title></head>
<body>
<div id="out"></div>
<script>
  document.getElementById('out').dataset.tz = Intl.DateTimeFormat().resolvedOptions().timeZone;
  document.getElementById('out').dataset.lang = navigator.language;
  document.getElementById('out').dataset.ua = navigator.userAgent;
  document.getElementById('out').dataset.width = String(window.innerWidth);
</script>
</body></html>`

func launchForTest(t *testing.T) *Session {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if FindChrome("") == "" {
		t.Skip("no Chrome binary available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	s, err := Launch(ctx, Options{Headless: true, NavTimeout: 20 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSession_EmulatesClientProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(emulationPage))
	}))
	defer srv.Close()

	s := launchForTest(t)
	ctx := context.Background()

	page, err := s.NewPage(ctx)
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Goto(ctx, srv.URL))
	doc, err := page.Document(ctx)
	require.NoError(t, err)

	out := doc.Find("#out")
	tz, _ := out.Attr("data-tz")
	lang, _ := out.Attr("data-lang")
	ua, _ := out.Attr("data-ua")
	width, _ := out.Attr("data-width")

	require.Equal(t, DefaultTimezone, tz)
	require.Equal(t, DefaultLocale, lang)
	require.Equal(t, DefaultUserAgent, ua)
	require.Equal(t, "1440", width)
	require.Equal(t, "probe", doc.Find("title").Text())
	require.NotNil(t, doc.Url)
}

func TestPage_CloseIsIdempotent(t *testing.T) {
	s := launchForTest(t)

	page, err := s.NewPage(context.Background())
	require.NoError(t, err)
	page.Close()
	page.Close()
}

func TestSession_NewPageAfterClose(t *testing.T) {
	s := launchForTest(t)
	require.NoError(t, s.Close())

	_, err := s.NewPage(context.Background())
	require.Error(t, err)
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	o.setDefaults()
	require.Equal(t, DefaultUserAgent, o.UserAgent)
	require.Equal(t, DefaultLocale, o.Locale)
	require.Equal(t, DefaultTimezone, o.Timezone)
	require.Equal(t, int64(1440), o.ViewportWidth)
	require.Equal(t, int64(850), o.ViewportHeight)
	require.Equal(t, DefaultNavTimeout, o.NavTimeout)
}
