// Package webhook authenticates inbound webhook deliveries signed with a
// shared secret.
//
// Senders put a header of the form
//
//	Stripe-Signature: t=1700000000,v1=5257a869e7ecebeda32affa62cdca3fa51cad7e77a0e56ff536d0ce8e108d8bd
//
// on each request, where v1 is the hex HMAC-SHA256 of "{t}.{raw body}". The
// receiver recomputes the HMAC over the exact bytes it received, compares it in
// constant time and rejects timestamps more than Tolerance away from its clock.
//
// # Usage
//
//	v, err := webhook.NewVerifier(os.Getenv("STRIPE_WEBHOOK_SECRET"))
//	if err != nil {
//	    return err
//	}
//
//	body, _ := io.ReadAll(r.Body)
//	if err := v.Verify(body, r.Header.Get(webhook.Header)); err != nil {
//	    // err matches webhook.ErrInvalidSignature; do not echo the reason.
//	    http.Error(w, "invalid signature", http.StatusBadRequest)
//	    return
//	}
//
// Only the first v1 value in the header is compared. Additional v1 values are
// parsed into Signature.Extra but never trusted.
//
// # Errors
//
// All verification failures satisfy errors.Is(err, ErrInvalidSignature). The
// joined reason (ErrSignatureMismatch, ErrTimestampTooOld, ...) exists so the
// receiver can log it.
package webhook
