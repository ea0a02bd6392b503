// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"crypto/tls"
	"fmt"
	stdlog "log"
	"os"
	"strconv"
	"strings"

	"github.com/go-lpc/barrel/l2"
	"github.com/go-lpc/barrel/timing"
	mail "gopkg.in/gomail.v2"
)

var (
	alertMailUsr  = os.Getenv("MAIL_USERNAME")
	alertMailPwd  = os.Getenv("MAIL_PASSWORD")
	alertMailSrv  = os.Getenv("MAIL_SERVER")
	alertMailPort = atoi(os.Getenv("MAIL_PORT"))
	alertMailTgts = strings.Split(os.Getenv("MAIL_TGTS"), ",")
)

// needAlert reports whether the fraction of rejected frames, or of
// unfitted timing windows, exceeds frac.
func needAlert(st l2.Stats, frac float64) bool {
	if frac <= 0 {
		return false
	}
	if n := st.Frames; n > 0 && float64(st.NumRejected())/float64(n) > frac {
		return true
	}
	var (
		bad = st.Timing.Windows[timing.Unfitted]
		tot = 0
	)
	for _, n := range st.Timing.Windows {
		tot += n
	}
	return tot > 0 && float64(bad)/float64(tot) > frac
}

func alertBody(payload string, st l2.Stats) string {
	o := new(strings.Builder)
	fmt.Fprintf(o, "payload:  %s\n", payload)
	fmt.Fprintf(o, "frames:   %d\n", st.Frames)
	fmt.Fprintf(o, "rejected: %d\n", st.NumRejected())
	for reason, n := range st.Rejected {
		fmt.Fprintf(o, "  %-14s %d\n", reason+":", n)
	}
	fmt.Fprintf(o, "windows:  fitted=%d reused=%d unfitted=%d\n",
		st.Timing.Windows[timing.Fitted],
		st.Timing.Windows[timing.Reused],
		st.Timing.Windows[timing.Unfitted],
	)
	return o.String()
}

func alertMail(payload string, st l2.Stats) {
	if alertMailUsr == "" || alertMailPwd == "" ||
		alertMailSrv == "" || alertMailPort == 0 ||
		len(alertMailTgts) == 0 || alertMailTgts[0] == "" {
		stdlog.Printf("could not send mail alert: missing credentials")
		return
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", alertMailUsr)
	msg.SetHeader("Bcc", alertMailTgts...)
	msg.SetHeader("Subject", fmt.Sprintf("[barrel-l2] payload alert: %q", payload))
	msg.SetBody("text/plain", alertBody(payload, st))

	dial := mail.NewDialer(alertMailSrv, alertMailPort, alertMailUsr, alertMailPwd)
	dial.TLSConfig = &tls.Config{
		ServerName: alertMailSrv,
	}
	err := dial.DialAndSend(msg)
	if err != nil {
		stdlog.Printf("could not send mail alert: %+v", err)
	}
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
