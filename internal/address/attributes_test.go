package address_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dukerupert/addressattr/internal/address"
	"github.com/dukerupert/addressattr/internal/domain"
	"github.com/dukerupert/addressattr/internal/telemetry"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	companyName  = domain.AddressAttribute{ID: 1, Name: "Company Name", ControlType: domain.ControlTypeTextBox, DisplayOrder: 1}
	deliveryDesk = domain.AddressAttribute{ID: 2, Name: "Delivery Desk", IsRequired: true, ControlType: domain.ControlTypeDropdownList, DisplayOrder: 2}
	taxID        = domain.AddressAttribute{ID: 3, Name: "Company Tax ID", IsRequired: true, ControlType: domain.ControlTypeTextBox, DisplayOrder: 3}

	frontDesk = domain.AddressAttributeValue{ID: 42, AddressAttributeID: 2, Name: "Front desk"}
	mailroom  = domain.AddressAttributeValue{ID: 43, AddressAttributeID: 2, Name: "Mailroom"}
)

func newCatalog() *address.MockCatalog {
	return &address.MockCatalog{
		Attributes: []domain.AddressAttribute{companyName, deliveryDesk, taxID},
		Values:     []domain.AddressAttributeValue{frontDesk, mailroom},
	}
}

func newLocalizer() *address.MockLocalizer {
	return &address.MockLocalizer{Resources: map[string]string{
		address.ResourceSelectAttribute: "Please select {0}",
	}}
}

func newParser(catalog *address.MockCatalog) *address.AttributeParser {
	return address.NewAttributeParser(catalog, newLocalizer(), address.ParserOptions{})
}

func mustAdd(t *testing.T, p *address.AttributeParser, doc string, attr domain.AddressAttribute, value string) string {
	t.Helper()
	out, err := p.AddAttribute(doc, attr, value)
	require.NoError(t, err)
	return out
}

func TestAttributeParser_RoundTrip(t *testing.T) {
	p := newParser(newCatalog())

	for _, value := range []string{"Acme Inc", "", "  padded  ", "Smith & Sons <Ltd>", "multi\nline"} {
		doc := mustAdd(t, p, "", companyName, value)

		values, err := p.ParseValues(doc, companyName.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{strings.TrimSpace(value)}, values)
	}
}

func TestAttributeParser_AddAttribute_AccumulatesInCallOrder(t *testing.T) {
	p := newParser(newCatalog())

	doc := mustAdd(t, p, "", deliveryDesk, "42")
	doc = mustAdd(t, p, doc, deliveryDesk, "43")

	values, err := p.ParseValues(doc, deliveryDesk.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"42", "43"}, values)
}

func TestAttributeParser_AddAttribute_OneElementPerID(t *testing.T) {
	p := newParser(newCatalog())

	doc := ""
	for _, v := range []string{"a", "b", "c"} {
		doc = mustAdd(t, p, doc, companyName, v)
		doc = mustAdd(t, p, doc, taxID, v)
	}

	assert.Equal(t, 1, strings.Count(doc, `<AddressAttribute ID="1">`))
	assert.Equal(t, 1, strings.Count(doc, `<AddressAttribute ID="3">`))

	ids, err := p.ParseAttributeIDs(doc)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids)
}

func TestAttributeParser_AddAttribute_EmptyInput(t *testing.T) {
	p := newParser(newCatalog())

	doc := mustAdd(t, p, "", companyName, "x")
	assert.Equal(t,
		`<Attributes><AddressAttribute ID="1"><AddressAttributeValue><Value>x</Value></AddressAttributeValue></AddressAttribute></Attributes>`,
		doc)

	ids, err := p.ParseAttributeIDs(doc)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)
}

func TestAttributeParser_AddAttribute_DoesNotTouchInput(t *testing.T) {
	p := newParser(newCatalog())

	original := mustAdd(t, p, "", companyName, "Acme")
	snapshot := original

	updated := mustAdd(t, p, original, taxID, "GB123")
	assert.Equal(t, snapshot, original)
	assert.NotEqual(t, original, updated)
}

func TestAttributeParser_EmptyInput(t *testing.T) {
	p := newParser(newCatalog())
	ctx := context.Background()

	for _, doc := range []string{"", "   \n"} {
		ids, err := p.ParseAttributeIDs(doc)
		assert.NoError(t, err)
		assert.Empty(t, ids)
		assert.NotNil(t, ids)

		attrs, err := p.ParseAttributes(ctx, doc)
		assert.NoError(t, err)
		assert.Empty(t, attrs)

		values, err := p.ParseValues(doc, 1)
		assert.NoError(t, err)
		assert.Empty(t, values)

		attrValues, err := p.ParseAttributeValues(ctx, doc)
		assert.NoError(t, err)
		assert.Empty(t, attrValues)
	}
}

func TestAttributeParser_MalformedInput(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewAttributeMetrics("test", reg)
	p := address.NewAttributeParser(newCatalog(), newLocalizer(), address.ParserOptions{Metrics: metrics})
	ctx := context.Background()

	ids, err := p.ParseAttributeIDs("<not-xml")
	assert.Empty(t, ids)
	assert.True(t, domain.IsCode(err, domain.EINVALID))

	values, err := p.ParseValues("<not-xml", 1)
	assert.Empty(t, values)
	assert.True(t, domain.IsCode(err, domain.EINVALID))

	attrs, err := p.ParseAttributes(ctx, "<Attributes><AddressAttribute ID=\"1\">")
	assert.Empty(t, attrs)
	assert.True(t, domain.IsCode(err, domain.EINVALID))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ParseFailures.WithLabelValues("attributes.parse_ids")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ParseFailures.WithLabelValues("attributes.parse_values")))
}

func TestAttributeParser_ParseAttributeIDs_SkipsBadIDs(t *testing.T) {
	p := newParser(newCatalog())

	doc := `<Attributes>` +
		`<AddressAttribute ID="x"/>` +
		`<AddressAttribute ID=" 3 "/>` +
		`<AddressAttribute/>` +
		`<AddressAttribute ID="1"/>` +
		`</Attributes>`

	ids, err := p.ParseAttributeIDs(doc)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, ids)
}

func TestAttributeParser_ParseAttributes_DropsUnknownIDs(t *testing.T) {
	p := newParser(newCatalog())

	doc := mustAdd(t, p, "", companyName, "Acme")
	doc = mustAdd(t, p, doc, domain.AddressAttribute{ID: 99, Name: "Retired"}, "gone")
	doc = mustAdd(t, p, doc, taxID, "GB123")

	attrs, err := p.ParseAttributes(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, companyName.ID, attrs[0].ID)
	assert.Equal(t, taxID.ID, attrs[1].ID)
}

func TestAttributeParser_ParseAttributes_CatalogFailure(t *testing.T) {
	catalog := newCatalog()
	catalog.GetAttributeByIDFunc = func(ctx context.Context, id int) (*domain.AddressAttribute, error) {
		return nil, errors.New("connection refused")
	}
	p := newParser(catalog)

	attrs, err := p.ParseAttributes(context.Background(), `<Attributes><AddressAttribute ID="1"/></Attributes>`)
	assert.Empty(t, attrs)
	assert.True(t, domain.IsCode(err, domain.EINTERNAL))
}

func TestAttributeParser_ParseValues_FirstMatchOnly(t *testing.T) {
	p := newParser(newCatalog())

	doc := `<Attributes>` +
		`<AddressAttribute ID="2"><AddressAttributeValue><Value> 42 </Value></AddressAttributeValue>` +
		`<AddressAttributeValue><Value></Value></AddressAttributeValue></AddressAttribute>` +
		`<AddressAttribute ID="2"><AddressAttributeValue><Value>43</Value></AddressAttributeValue></AddressAttribute>` +
		`</Attributes>`

	values, err := p.ParseValues(doc, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"42", ""}, values)

	values, err = p.ParseValues(doc, 7)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestAttributeParser_ParseAttributeValues(t *testing.T) {
	p := newParser(newCatalog())

	doc := mustAdd(t, p, "", companyName, "Acme Inc")
	doc = mustAdd(t, p, doc, deliveryDesk, "42")

	values, err := p.ParseAttributeValues(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []domain.AddressAttributeValue{frontDesk}, values)
}

func TestAttributeParser_ParseAttributeValues_DropsUnresolvable(t *testing.T) {
	p := newParser(newCatalog())

	doc := ""
	for _, v := range []string{"43", "", "not-a-number", "999", "42"} {
		doc = mustAdd(t, p, doc, deliveryDesk, v)
	}
	// A free-text attribute holding a number is not resolved as an option.
	doc = mustAdd(t, p, doc, companyName, "42")

	values, err := p.ParseAttributeValues(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []domain.AddressAttributeValue{mailroom, frontDesk}, values)
}

func TestAttributeParser_ParseAttributeValues_SkipsOutOfRangeIDs(t *testing.T) {
	catalog := newCatalog()
	var lookups []int
	catalog.GetAttributeValueByIDFunc = func(ctx context.Context, id int) (*domain.AddressAttributeValue, error) {
		lookups = append(lookups, id)
		if id == frontDesk.ID {
			return &frontDesk, nil
		}
		return nil, domain.NotFound("test", "address attribute value", "")
	}
	p := newParser(catalog)

	doc := ""
	for _, v := range []string{"3000000000", "2147483648", "-2147483649", "42"} {
		doc = mustAdd(t, p, doc, deliveryDesk, v)
	}

	values, err := p.ParseAttributeValues(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []domain.AddressAttributeValue{frontDesk}, values)
	assert.Equal(t, []int{42}, lookups)
}

func TestAttributeParser_AddAttribute_WriteFailureKeepsDocument(t *testing.T) {
	stored := `<Attributes><AddressAttribute ID="3"><AddressAttributeValue><Value>GB1</Value></AddressAttributeValue></AddressAttribute></Attributes>`

	tests := []struct {
		name  string
		doc   string
		attr  domain.AddressAttribute
		value string
		code  string
	}{
		{name: "malformed document", doc: "<Attributes>", attr: companyName, value: "x", code: domain.EINVALID},
		{name: "no Attributes element", doc: "<Address/>", attr: companyName, value: "x", code: domain.EUNPROCESSABLE},
		{name: "non-positive id", doc: "<Attributes/>", attr: domain.AddressAttribute{ID: 0}, value: "x", code: domain.EINVALID},
		{name: "control character", doc: stored, attr: companyName, value: "a\x01b", code: domain.EINVALID},
		{name: "nul byte", doc: stored, attr: companyName, value: "nul\x00", code: domain.EINVALID},
		{name: "invalid utf-8", doc: stored, attr: companyName, value: "bad\xffutf8", code: domain.EINVALID},
		{name: "invalid character on empty document", doc: "", attr: companyName, value: "\x1b[0m", code: domain.EINVALID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(newCatalog())

			out, err := p.AddAttribute(tt.doc, tt.attr, tt.value)
			assert.Equal(t, tt.doc, out)
			assert.True(t, domain.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestAttributeParser_AddAttribute_RejectedValueKeepsDocumentReadable(t *testing.T) {
	p := newParser(newCatalog())

	doc := mustAdd(t, p, "", taxID, "GB1")
	doc, err := p.AddAttribute(doc, companyName, "a\x01b")
	require.Error(t, err)

	values, err := p.ParseValues(doc, taxID.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"GB1"}, values)

	doc = mustAdd(t, p, doc, companyName, "Acme Inc")
	ids, err := p.ParseAttributeIDs(doc)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, ids)
}

func TestAttributeParser_AddAttribute_LegacyDiscard(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewAttributeMetrics("test", reg)
	p := address.NewAttributeParser(newCatalog(), newLocalizer(), address.ParserOptions{
		DiscardOnWriteFailure: true,
		Metrics:               metrics,
	})

	out, err := p.AddAttribute("<Attributes>", companyName, "x")
	assert.Error(t, err)
	assert.Equal(t, "", out)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WriteFailures.WithLabelValues("attributes.add", "discarded")))
}

func TestAttributeParser_LegacyDiscardReportsToSentry(t *testing.T) {
	var events []*sentry.Event
	cleanup, err := telemetry.InitSentry(telemetry.SentryConfig{
		Enabled: true,
		DSN:     "https://public@sentry.example.com/1",
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			events = append(events, event)
			return nil
		},
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		cleanup()
		_, _ = telemetry.InitSentry(telemetry.SentryConfig{}, zerolog.Nop())
	})

	kept := newParser(newCatalog())
	_, err = kept.AddAttribute("<Attributes>", companyName, "x")
	require.Error(t, err)
	assert.Empty(t, events, "a kept document is not reported")

	discarding := address.NewAttributeParser(newCatalog(), newLocalizer(), address.ParserOptions{DiscardOnWriteFailure: true})
	_, err = discarding.AddAttribute("<Attributes>", companyName, "x")
	require.Error(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EINVALID, events[0].Tags["error_code"])
	assert.Equal(t, "attributes.add", events[0].Tags["op"])
}

func TestAttributeParser_RemoveAttribute(t *testing.T) {
	p := newParser(newCatalog())

	doc := mustAdd(t, p, "", companyName, "Acme")
	doc = mustAdd(t, p, doc, taxID, "GB123")

	out, err := p.RemoveAttribute(doc, companyName.ID)
	require.NoError(t, err)

	ids, err := p.ParseAttributeIDs(out)
	require.NoError(t, err)
	assert.Equal(t, []int{taxID.ID}, ids)

	unchanged, err := p.RemoveAttribute(out, 77)
	require.NoError(t, err)
	assert.Equal(t, out, unchanged)

	empty, err := p.RemoveAttribute("", 1)
	require.NoError(t, err)
	assert.Equal(t, "", empty)

	broken, err := p.RemoveAttribute("<Attributes", 1)
	assert.True(t, domain.IsCode(err, domain.EINVALID))
	assert.Equal(t, "<Attributes", broken)
}

func TestAttributeParser_GetAttributeWarnings(t *testing.T) {
	required := domain.AddressAttribute{ID: 10, Name: "Company VAT ID", IsRequired: true, ControlType: domain.ControlTypeTextBox}
	optional := domain.AddressAttribute{ID: 11, Name: "Gate Code", ControlType: domain.ControlTypeTextBox}
	catalog := &address.MockCatalog{Attributes: []domain.AddressAttribute{required, optional}}
	p := newParser(catalog)
	ctx := context.Background()

	tests := []struct {
		name string
		doc  func() string
		want []string
	}{
		{
			name: "empty document",
			doc:  func() string { return "" },
			want: []string{"Please select Company VAT ID"},
		},
		{
			name: "only optional supplied",
			doc:  func() string { return mustAdd(t, p, "", optional, "1234") },
			want: []string{"Please select Company VAT ID"},
		},
		{
			name: "required supplied blank",
			doc:  func() string { return mustAdd(t, p, "", required, "   ") },
			want: []string{"Please select Company VAT ID"},
		},
		{
			name: "required supplied with a later non-blank value",
			doc: func() string {
				doc := mustAdd(t, p, "", required, "")
				return mustAdd(t, p, doc, required, "GB123")
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := p.GetAttributeWarnings(ctx, tt.doc())
			require.NoError(t, err)
			assert.Equal(t, tt.want, warnings)
		})
	}
}

func TestAttributeParser_GetAttributeWarnings_CatalogOrder(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewAttributeMetrics("test", reg)
	p := address.NewAttributeParser(newCatalog(), newLocalizer(), address.ParserOptions{Metrics: metrics})

	warnings, err := p.GetAttributeWarnings(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Please select Delivery Desk", "Please select Company Tax ID"}, warnings)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RequiredWarnings))
}

func TestAttributeParser_GetAttributeWarnings_CorruptDocument(t *testing.T) {
	p := newParser(newCatalog())

	warnings, err := p.GetAttributeWarnings(context.Background(), "<Attributes><AddressAttribute")
	assert.True(t, domain.IsCode(err, domain.EINVALID))
	assert.Len(t, warnings, 2, "a corrupt document satisfies nothing")
}

func TestAttributeParser_GetAttributeWarnings_CatalogFailure(t *testing.T) {
	catalog := newCatalog()
	catalog.GetAllAttributesFunc = func(ctx context.Context) ([]domain.AddressAttribute, error) {
		return nil, errors.New("timeout")
	}
	p := newParser(catalog)

	warnings, err := p.GetAttributeWarnings(context.Background(), "")
	assert.Empty(t, warnings)
	assert.True(t, domain.IsCode(err, domain.EINTERNAL))
}

func TestFormatResource(t *testing.T) {
	assert.Equal(t, "Please select Gate Code", address.FormatResource("Please select {0}", "Gate Code"))
	assert.Equal(t, "a-b-{2}", address.FormatResource("{0}-{1}-{2}", "a", "b"))
	assert.Equal(t, "no args {0}", address.FormatResource("no args {0}"))
}
