package ucampus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
	"ucampus-grades/lib/restyutil"
	"ucampus-grades/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultPortalURL = "https://ucampus.uahurtado.cl"
	DefaultAuthPath  = "/auth/api"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	DefaultTimeout   = 30 * time.Second

	// SessionCookie is issued on the first unauthenticated request and must
	// be echoed back in the login form.
	SessionCookie = "_ucampus"
)

type Credentials struct {
	Username string
	Password string
}

// LogValue keeps the password out of logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(slog.String("username", c.Username))
}

// LoginOptions are the fixed fields the portal's login form sends.
type LoginOptions struct {
	Service      string
	LoadBalancer string
	Lang         string
	Remember     bool
}

func DefaultLoginOptions() LoginOptions {
	return LoginOptions{
		Service:      "ucampus",
		LoadBalancer: "uah02-int",
		Lang:         "es",
		Remember:     true,
	}
}

type Options struct {
	PortalURL string
	AuthPath  string
	UserAgent string
	// Timeout bounds every single request, 0 means DefaultTimeout.
	Timeout          time.Duration
	Login            LoginOptions
	CloudflareBypass bool
	// InstrumentOutput receives a dump of every http message, it may be nil.
	InstrumentOutput restyutil.InstrumentOutput
}

// Authenticator performs the portal's two-step login. Every call to
// Authenticate uses a fresh cookie jar.
type Authenticator struct {
	portal  *url.URL
	authUrl string
	opts    Options
}

func NewAuthenticator(opts Options) (*Authenticator, error) {
	if opts.PortalURL == "" {
		opts.PortalURL = DefaultPortalURL
	}
	if opts.AuthPath == "" {
		opts.AuthPath = DefaultAuthPath
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Login == (LoginOptions{}) {
		opts.Login = DefaultLoginOptions()
	}

	portal, err := url.Parse(opts.PortalURL)
	if err != nil {
		return nil, err
	}
	if portal.Scheme == "" || portal.Host == "" {
		return nil, fmt.Errorf("portal url must be absolute: %q", opts.PortalURL)
	}
	authUrl, err := portal.Parse(opts.AuthPath)
	if err != nil {
		return nil, err
	}

	return &Authenticator{
		portal:  portal,
		authUrl: authUrl.String(),
		opts:    opts,
	}, nil
}

func (a *Authenticator) newClient() (*resty.Client, *cookiejar.Jar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, nil, err
	}

	client := resty.New()
	client.SetCookieJar(jar)
	if a.opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", a.opts.UserAgent)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetTimeout(a.opts.Timeout)

	telemetry.InstrumentResty(client, "ucampus.lib.platforms.ucampus/http")
	restyutil.InstrumentClient(client, "ucampus-", a.opts.InstrumentOutput)

	return client, jar, nil
}

// Session is the transport state of one authenticated student, it is only
// handed out by a successful Authenticate.
type Session struct {
	http         *resty.Client
	continuation string
}

// Continuation returns the url that was visited to activate the session.
func (s *Session) Continuation() string {
	return s.continuation
}

func (s *Session) get(ctx context.Context, link string) (string, error) {
	if s == nil || s.http == nil {
		return "", ErrNotAuthenticated
	}
	res, err := s.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return "", transportError(http.MethodGet, link, err)
	}
	if res.IsError() {
		return "", statusError(res)
	}
	// res.String() trims the body, pages are handed on as served
	return string(res.Body()), nil
}

type loginResponse struct {
	Status int     `json:"status"`
	U      *string `json:"u"`
	M      string  `json:"m"`
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func findCookie(cookies []*http.Cookie, name string) string {
	for _, c := range cookies {
		if c.Name == name && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

// Authenticate bootstraps a session cookie, exchanges the credentials for a
// continuation url and visits it. The returned Session is only non-nil when
// err is nil.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	ctx, span := tracer.Start(ctx, "Authenticator:Authenticate")
	defer span.End()

	fail := func(err error, msg string) (*Session, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		return nil, err
	}

	client, jar, err := a.newClient()
	if err != nil {
		return fail(err, "failed to create http client")
	}

	// 1. bootstrap the session cookie
	portalUrl := a.portal.String()
	res, err := client.R().
		SetContext(ctx).
		Get(portalUrl)
	if err != nil {
		return fail(transportError(http.MethodGet, portalUrl, err), "failed to fetch portal root")
	}
	if res.IsError() {
		return fail(statusError(res), "portal root returned an error status")
	}
	sess := findCookie(res.Cookies(), SessionCookie)
	if sess == "" {
		// cookies set on an intermediate redirect only live in the jar
		sess = findCookie(jar.Cookies(a.portal), SessionCookie)
	}
	if sess == "" {
		return fail(ErrNoSessionCookie, "session cookie missing")
	}

	// 2. credential exchange
	res, err = client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"servicio": a.opts.Login.Service,
			"debug":    "0",
			"_sess":    sess,
			"_LB":      a.opts.Login.LoadBalancer,
			"lang":     a.opts.Login.Lang,
			"username": creds.Username,
			"password": creds.Password,
			"recordar": boolFlag(a.opts.Login.Remember),
		}).
		Post(a.authUrl)
	if err != nil {
		return fail(transportError(http.MethodPost, a.authUrl, err), "failed to post credentials")
	}
	if res.IsError() {
		return fail(statusError(res), "login endpoint returned an error status")
	}

	// 3. decode
	var login loginResponse
	err = json.Unmarshal(res.Body(), &login)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrMalformedResponse, err), "failed to decode login response")
	}
	span.SetAttributes(attribute.Int("login.status", login.Status))

	// 4. continuation
	if login.Status != http.StatusOK || login.U == nil || strings.TrimSpace(*login.U) == "" {
		return fail(&RejectedError{Status: login.Status, Message: login.M}, "login rejected")
	}
	continuation := strings.TrimSpace(*login.U)
	res, err = client.R().
		SetContext(ctx).
		Get(continuation)
	if err != nil {
		return fail(transportError(http.MethodGet, continuation, err), "failed to visit continuation url")
	}
	if res.IsError() {
		return fail(statusError(res), "continuation url returned an error status")
	}

	slog.DebugContext(ctx, "authenticated", "creds", creds)
	return &Session{http: client, continuation: continuation}, nil
}
