package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

const testWebhookSecret = "whsec_test"

// sign builds a Stripe-Signature header for payload.
func sign(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestParseWebhook(t *testing.T) {
	g := NewStripeGateway("sk_test", testWebhookSecret, nil)

	tests := []struct {
		name    string
		payload string
		check   func(t *testing.T, ev *Event)
	}{
		{
			name: "checkout completed",
			payload: `{"id":"evt_1","object":"event","type":"checkout.session.completed","created":1760000000,
				"data":{"object":{"id":"cs_1","object":"checkout.session","client_reference_id":"m1",
				"customer":"cus_1","subscription":"sub_1","amount_total":500,"currency":"cad",
				"payment_status":"paid","customer_details":{"email":"fan@example.com","name":"Fan"}}}}`,
			check: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev.Checkout)
				assert.Equal(t, "m1", ev.Checkout.MembershipID)
				assert.Equal(t, "cus_1", ev.Checkout.CustomerID)
				assert.Equal(t, "sub_1", ev.Checkout.SubscriptionID)
				assert.Equal(t, "fan@example.com", ev.Checkout.CustomerEmail)
				assert.Equal(t, int64(500), ev.Checkout.AmountTotal)
				assert.True(t, ev.Checkout.Paid)
			},
		},
		{
			name: "checkout falls back to metadata",
			payload: `{"id":"evt_2","object":"event","type":"checkout.session.completed",
				"data":{"object":{"id":"cs_2","object":"checkout.session","metadata":{"membership_id":"m2"},
				"payment_status":"no_payment_required"}}}`,
			check: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev.Checkout)
				assert.Equal(t, "m2", ev.Checkout.MembershipID)
				assert.True(t, ev.Checkout.Paid)
			},
		},
		{
			name: "renewal invoice uses line period",
			payload: `{"id":"evt_3","object":"event","type":"invoice.paid",
				"data":{"object":{"id":"in_1","object":"invoice","subscription":"sub_1","billing_reason":"subscription_cycle",
				"amount_paid":500,"currency":"cad","period_start":1,"period_end":2,
				"lines":{"object":"list","data":[{"id":"il_1","object":"line_item","period":{"start":1760000000,"end":1762678400}}]}}}}`,
			check: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev.Invoice)
				assert.Equal(t, "sub_1", ev.Invoice.SubscriptionID)
				assert.Equal(t, BillingReasonCycle, ev.Invoice.BillingReason)
				assert.Equal(t, time.Unix(1762678400, 0).UTC(), ev.Invoice.PeriodEnd)
			},
		},
		{
			name: "subscription updated",
			payload: `{"id":"evt_4","object":"event","type":"customer.subscription.updated",
				"data":{"object":{"id":"sub_1","object":"subscription","status":"active","cancel_at_period_end":true,"current_period_end":1762678400}}}`,
			check: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev.Subscription)
				assert.True(t, ev.Subscription.CancelAtPeriodEnd)
				assert.Equal(t, "active", ev.Subscription.Status)
			},
		},
		{
			name:    "unhandled type",
			payload: `{"id":"evt_5","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`,
			check: func(t *testing.T, ev *Event) {
				assert.Nil(t, ev.Checkout)
				assert.Nil(t, ev.Invoice)
				assert.Nil(t, ev.Subscription)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := []byte(tt.payload)
			ev, err := g.ParseWebhook(payload, sign(payload, testWebhookSecret, time.Now()))
			require.NoError(t, err)
			tt.check(t, ev)
		})
	}
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	g := NewStripeGateway("sk_test", testWebhookSecret, nil)
	payload := []byte(`{"id":"evt_1","object":"event","type":"invoice.paid","data":{"object":{}}}`)

	_, err := g.ParseWebhook(payload, sign(payload, "whsec_other", time.Now()))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = g.ParseWebhook(payload, sign(payload, testWebhookSecret, time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidSignature, "stale timestamp")

	_, err = g.ParseWebhook(payload, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCreateCheckoutSession(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_123","object":"checkout.session","url":"https://checkout.stripe.com/c/cs_123"}`)
	}))
	defer srv.Close()

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	g := NewStripeGateway("sk_test", testWebhookSecret, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	sess, err := g.CreateCheckoutSession(context.Background(), CheckoutRequest{
		MembershipID: "m1", UserID: "u1", Email: "fan@example.com", PlanID: "monthly",
		PriceID: "price_monthly", Recurring: true, TrialDays: 90,
		SuccessURL: "https://tvk.ca/ok", CancelURL: "https://tvk.ca/cancel",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_123", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_123", sess.URL)

	assert.Equal(t, "subscription", form["mode"])
	assert.Equal(t, "price_monthly", form["line_items[0][price]"])
	assert.Equal(t, "m1", form["client_reference_id"])
	assert.Equal(t, "90", form["subscription_data[trial_period_days]"])
	assert.Equal(t, "m1", form["metadata[membership_id]"])

	_, err = g.CreateCheckoutSession(context.Background(), CheckoutRequest{PlanID: "yearly"})
	assert.Error(t, err, "missing price id")
}

func TestExpireCheckoutSession(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "cs_paid") {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"type":"invalid_request_error","message":"Only Checkout Sessions with a status of open can be expired."}}`)
			return
		}
		fmt.Fprint(w, `{"id":"cs_open","object":"checkout.session","status":"expired"}`)
	}))
	defer srv.Close()

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	g := NewStripeGateway("sk_test", testWebhookSecret, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	require.NoError(t, g.ExpireCheckoutSession(context.Background(), "cs_open"))
	assert.Equal(t, "/v1/checkout/sessions/cs_open/expire", path)

	assert.Error(t, g.ExpireCheckoutSession(context.Background(), "cs_paid"))
}
