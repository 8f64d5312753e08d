package artifact

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/trustblock/trustblock-cli/internal/failures"
	"github.com/trustblock/trustblock-cli/internal/transport"
)

const (
	renderOperationConstant         = "render report"
	renderURLQueryParameterConstant = "url"
	chromiumRenderTemplateConstant  = "print %s to PDF: %w"
	chromiumWriteTemplateConstant   = "write rendered PDF: %w"
	defaultChromiumTimeoutConstant  = 120 * time.Second
)

// Renderer converts a hosted report page into PDF bytes written to sink.
type Renderer interface {
	Render(executionContext context.Context, reportURL string, credential string, sink io.Writer) error
}

// StreamingClient is the subset of transport.Client used by RemoteRenderer.
type StreamingClient interface {
	Stream(executionContext context.Context, request transport.Request, sink io.Writer) (int64, error)
}

// RemoteRenderer asks the rendering service to produce the PDF.
type RemoteRenderer struct {
	client   StreamingClient
	endpoint string
}

// NewRemoteRenderer constructs a RemoteRenderer targeting endpoint.
func NewRemoteRenderer(client StreamingClient, endpoint string) RemoteRenderer {
	return RemoteRenderer{client: client, endpoint: endpoint}
}

// Render issues GET {endpoint}?url=<reportURL> with the credential header.
func (renderer RemoteRenderer) Render(executionContext context.Context, reportURL string, credential string, sink io.Writer) error {
	_, streamError := renderer.client.Stream(executionContext, transport.Request{
		Operation:  renderOperationConstant,
		Method:     http.MethodGet,
		Endpoint:   renderer.endpoint,
		Query:      url.Values{renderURLQueryParameterConstant: []string{reportURL}},
		Credential: credential,
	}, sink)
	return streamError
}

// ChromiumRenderer prints the report page to PDF with a local headless Chrome.
type ChromiumRenderer struct {
	allocatorOptions []chromedp.ExecAllocatorOption
	timeout          time.Duration
}

// NewChromiumRenderer constructs a ChromiumRenderer. A non-positive timeout uses the default.
func NewChromiumRenderer(timeout time.Duration, allocatorOptions ...chromedp.ExecAllocatorOption) ChromiumRenderer {
	if timeout <= 0 {
		timeout = defaultChromiumTimeoutConstant
	}
	options := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	options = append(options, allocatorOptions...)
	return ChromiumRenderer{allocatorOptions: options, timeout: timeout}
}

// Render navigates to reportURL and prints it with backgrounds. The credential is not used.
func (renderer ChromiumRenderer) Render(executionContext context.Context, reportURL string, credential string, sink io.Writer) error {
	timeoutContext, cancelTimeout := context.WithTimeout(executionContext, renderer.timeout)
	defer cancelTimeout()

	allocatorContext, cancelAllocator := chromedp.NewExecAllocator(timeoutContext, renderer.allocatorOptions...)
	defer cancelAllocator()

	browserContext, cancelBrowser := chromedp.NewContext(allocatorContext)
	defer cancelBrowser()

	var renderedDocument []byte
	runError := chromedp.Run(browserContext,
		chromedp.Navigate(reportURL),
		chromedp.ActionFunc(func(actionContext context.Context) error {
			printedDocument, _, printError := page.PrintToPDF().WithPrintBackground(true).Do(actionContext)
			if printError != nil {
				return printError
			}
			renderedDocument = printedDocument
			return nil
		}),
	)
	if runError != nil {
		return failures.New(failures.ErrUpstreamFailure, renderOperationConstant, fmt.Errorf(chromiumRenderTemplateConstant, reportURL, runError))
	}

	if _, writeError := sink.Write(renderedDocument); writeError != nil {
		return failures.New(failures.ErrIO, renderOperationConstant, fmt.Errorf(chromiumWriteTemplateConstant, writeError))
	}
	return nil
}
