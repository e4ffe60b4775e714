package molit

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hyunsoolee/aptpulse/pkg/config"
	pkgerrors "github.com/hyunsoolee/aptpulse/pkg/errors"
	"github.com/hyunsoolee/aptpulse/pkg/logger"
)

const (
	defaultBaseURL  = "https://apis.data.go.kr/1613000"
	defaultPageSize = 1000

	salePath = "/RTMSDataSvcAptTradeDev/getRTMSDataSvcAptTradeDev"
	rentPath = "/RTMSDataSvcAptRent/getRTMSDataSvcAptRent"

	responseBodyReadLimit int64 = 8 << 20
)

var errServiceKeyRequired = errors.New("molit service key is required")

// Client wraps the MOLIT apartment transaction-price API. Both feeds
// (sale and lease) page through the same envelope; rows come back as
// untyped strings and are coerced downstream.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	serviceKey  string
	pageSize    int
	callTimeout time.Duration
	validate    *validator.Validate
	logg        *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the MOLIT client from configuration.
func NewClient(cfg config.MolitConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(cfg.ServiceKey)
	if key == "" {
		return nil, errServiceKeyRequired
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     defaultBaseURL,
		serviceKey:  key,
		pageSize:    cfg.PageSize,
		callTimeout: cfg.CallTimeout,
		validate:    validator.New(),
		logg:        logg,
	}
	if cfg.BaseURL != "" {
		client.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if client.pageSize <= 0 {
		client.pageSize = defaultPageSize
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// FetchParams identify one (district, period) slice of a feed.
type FetchParams struct {
	RegionCode string `validate:"required,len=5,numeric"`
	YearMonth  string `validate:"required,len=6,numeric"`
}

// SaleRow is one raw sale transaction as returned by the API.
type SaleRow struct {
	DistrictCode     string `xml:"sggCd"`
	NeighborhoodCode string `xml:"umdCd"`
	NeighborhoodName string `xml:"umdNm"`
	Parcel           string `xml:"jibun"`
	ComplexName      string `xml:"aptNm"`
	ExclusiveArea    string `xml:"excluUseAr"`
	DealYear         string `xml:"dealYear"`
	DealMonth        string `xml:"dealMonth"`
	DealDay          string `xml:"dealDay"`
	Floor            string `xml:"floor"`
	BuildYear        string `xml:"buildYear"`
	DealAmount       string `xml:"dealAmount"`
}

// RentRow is one raw lease transaction (jeonse or monthly rent).
type RentRow struct {
	DistrictCode     string `xml:"sggCd"`
	NeighborhoodCode string `xml:"umdCd"`
	NeighborhoodName string `xml:"umdNm"`
	Parcel           string `xml:"jibun"`
	ComplexName      string `xml:"aptNm"`
	ExclusiveArea    string `xml:"excluUseAr"`
	DealYear         string `xml:"dealYear"`
	DealMonth        string `xml:"dealMonth"`
	DealDay          string `xml:"dealDay"`
	Floor            string `xml:"floor"`
	BuildYear        string `xml:"buildYear"`
	Deposit          string `xml:"deposit"`
	MonthlyRent      string `xml:"monthlyRent"`
	ContractTerm     string `xml:"contractTerm"`
}

type saleResponse struct {
	XMLName xml.Name   `xml:"response"`
	Header  respHeader `xml:"header"`
	Body    struct {
		Items struct {
			Item []SaleRow `xml:"item"`
		} `xml:"items"`
		NumOfRows  int `xml:"numOfRows"`
		PageNo     int `xml:"pageNo"`
		TotalCount int `xml:"totalCount"`
	} `xml:"body"`
}

type rentResponse struct {
	XMLName xml.Name   `xml:"response"`
	Header  respHeader `xml:"header"`
	Body    struct {
		Items struct {
			Item []RentRow `xml:"item"`
		} `xml:"items"`
		NumOfRows  int `xml:"numOfRows"`
		PageNo     int `xml:"pageNo"`
		TotalCount int `xml:"totalCount"`
	} `xml:"body"`
}

type respHeader struct {
	ResultCode string `xml:"resultCode"`
	ResultMsg  string `xml:"resultMsg"`
}

func (h respHeader) ok() bool {
	code := strings.TrimSpace(h.ResultCode)
	return code == "000" || code == "00"
}

// FetchSaleDeals returns every sale row for the district and period,
// paging until the reported total is exhausted. An empty slice is a
// normal outcome.
func (c *Client) FetchSaleDeals(ctx context.Context, params FetchParams) ([]SaleRow, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fetch params")
	}

	var rows []SaleRow
	for page := 1; ; page++ {
		var decoded saleResponse
		if err := c.getPage(ctx, salePath, params, page, &decoded); err != nil {
			return nil, err
		}
		if !decoded.Header.ok() {
			return nil, apiError(decoded.Header)
		}
		rows = append(rows, decoded.Body.Items.Item...)
		if !hasMorePages(page, c.pageSize, decoded.Body.TotalCount, len(decoded.Body.Items.Item)) {
			break
		}
	}
	c.logFetched(ctx, "sale", params, len(rows))
	return rows, nil
}

// FetchRentDeals returns every lease row for the district and period.
func (c *Client) FetchRentDeals(ctx context.Context, params FetchParams) ([]RentRow, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fetch params")
	}

	var rows []RentRow
	for page := 1; ; page++ {
		var decoded rentResponse
		if err := c.getPage(ctx, rentPath, params, page, &decoded); err != nil {
			return nil, err
		}
		if !decoded.Header.ok() {
			return nil, apiError(decoded.Header)
		}
		rows = append(rows, decoded.Body.Items.Item...)
		if !hasMorePages(page, c.pageSize, decoded.Body.TotalCount, len(decoded.Body.Items.Item)) {
			break
		}
	}
	c.logFetched(ctx, "lease", params, len(rows))
	return rows, nil
}

func (c *Client) logFetched(ctx context.Context, feed string, params FetchParams, count int) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{
		"feed":        feed,
		"region_code": params.RegionCode,
		"year_month":  params.YearMonth,
		"rows":        count,
	})
	c.logg.Info(ctx, "transaction-price api fetch complete")
}

func hasMorePages(page, pageSize, totalCount, got int) bool {
	if got == 0 {
		return false
	}
	return page*pageSize < totalCount
}

func (c *Client) getPage(ctx context.Context, path string, params FetchParams, page int, out any) error {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	query := url.Values{}
	query.Set("serviceKey", c.serviceKey)
	query.Set("LAWD_CD", params.RegionCode)
	query.Set("DEAL_YMD", params.YearMonth)
	query.Set("pageNo", fmt.Sprintf("%d", page))
	query.Set("numOfRows", fmt.Sprintf("%d", c.pageSize))

	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call transaction-price api")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read api response")
	}
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("transaction-price api returned status %d", resp.StatusCode))
	}
	if err := xml.Unmarshal(body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode api response")
	}
	return nil
}

func apiError(header respHeader) error {
	return pkgerrors.New(pkgerrors.CodeDependency,
		fmt.Sprintf("transaction-price api result %s: %s", header.ResultCode, header.ResultMsg)).
		WithDetails(map[string]string{
			"result_code": header.ResultCode,
			"result_msg":  header.ResultMsg,
		})
}
