package main

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

type callbackPayload struct {
	OrderID                 string `json:"orderId,omitempty"`
	OriginalMerchantOrderID string `json:"originalMerchantOrderId,omitempty"`
	MerchantRefundID        string `json:"merchantRefundId,omitempty"`
	State                   string `json:"state,omitempty"`
	Amount                  int64  `json:"amount,omitempty"`
}

type callbackBody struct {
	Type    string          `json:"type"`
	Payload callbackPayload `json:"payload"`
}

func main() {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	url := flag.String("url", strings.TrimRight(base, "/")+"/api/phonepe/webhook", "Webhook URL")
	username := flag.String("username", os.Getenv("PHONEPE_WEBHOOK_USERNAME"), "Webhook username")
	password := flag.String("password", os.Getenv("PHONEPE_WEBHOOK_PASSWORD"), "Webhook password")
	eventType := flag.String("type", "CHECKOUT_ORDER_COMPLETED", "Event type (CHECKOUT_ORDER_COMPLETED, PG_REFUND_ACCEPTED, PG_REFUND_COMPLETED)")
	state := flag.String("state", "COMPLETED", "Payment state (COMPLETED, FAILED, PENDING)")
	orderID := flag.String("order-id", "MUID-"+randomHex(8), "Merchant order id (for order events)")
	refundID := flag.String("refund-id", "", "Merchant refund id (for refund events)")
	amount := flag.Int64("amount", 10000, "Amount in paise")
	dryRun := flag.Bool("dry-run", false, "Only print the Authorization header and body, don't send")

	flag.Parse()

	if *username == "" || *password == "" {
		fmt.Fprintf(os.Stderr, "Error: username/password not provided and PHONEPE_WEBHOOK_USERNAME/PHONEPE_WEBHOOK_PASSWORD not set\n")
		os.Exit(1)
	}

	body := callbackBody{Type: *eventType}
	if strings.HasPrefix(*eventType, "PG_REFUND") {
		rid := *refundID
		if rid == "" {
			rid = "REFUND-" + randomHex(8)
		}
		body.Payload = callbackPayload{MerchantRefundID: rid, State: *state, Amount: *amount}
	} else {
		body.Payload = callbackPayload{
			OrderID:                 "OMO" + randomHex(12),
			OriginalMerchantOrderID: *orderID,
			State:                   *state,
			Amount:                  *amount,
		}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	// PhonePe sends SHA256(username:password) as the Authorization value
	sum := sha256.Sum256([]byte(*username + ":" + *password))
	auth := hex.EncodeToString(sum[:])

	fmt.Printf("Authorization: %s\n", auth)
	fmt.Printf("Body: %s\n", string(raw))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	req, err := http.NewRequest("POST", *url, bytes.NewReader(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func randomHex(n int) string {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		return strings.Repeat("0", n)
	}
	return hex.EncodeToString(b)[:n]
}
