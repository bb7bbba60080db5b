package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

var mailHost string
var mailPort int
var mailUser string
var mailPass string
var mailFrom string
var mailTo []string
var mailBCC []string
var mailAdmins []string

func MailInitialize() error {
	var fields []string

	// The mail section mixes strings and lists, so the keys are read one by
	// one instead of through GetStringMapString.
	mailHost = viper.GetString("mail.host")
	mailFrom = viper.GetString("mail.from")
	mailUser = viper.GetString("mail.user")
	mailTo = viper.GetStringSlice("mail.to")
	mailBCC = viper.GetStringSlice("mail.bcc")
	mailAdmins = viper.GetStringSlice("mail.admins")

	x := viper.Get("mail_password")
	if x != nil {
		mailPass = x.(string)
	} else {
		mailPass = viper.GetString("mail.password")
	}

	mailPort = 25
	if portStr := viper.GetString("mail.port"); len(portStr) > 0 {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("in the mail section, port is not a number: %s", portStr)
		}
		mailPort = port
	}

	if len(mailHost) == 0 {
		fields = append(fields, "host")
	}
	if len(mailFrom) == 0 {
		fields = append(fields, "from")
	}
	if len(mailTo) == 0 {
		fields = append(fields, "to")
	}
	if len(mailAdmins) == 0 {
		fields = append(fields, "admins")
	}
	if len(fields) > 0 {
		err := errors.New("in the mail section, the config file is missing: " + strings.Join(fields, ","))
		return err
	}
	return nil
}

// reportMailBody is the HTML summary embedded in the report notification.
func reportMailBody(userCount int, ous []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<p>%d user accounts found.</p>", userCount))
	b.WriteString("<p>Organizational units searched:</p><ul>")
	for _, ou := range ous {
		b.WriteString(fmt.Sprintf("<li>%s</li>", ou))
	}
	b.WriteString("</ul>")
	return b.String()
}

func mailDialer() *gomail.Dialer {
	// An unauthenticated relay is the common case on an internal network.
	if len(mailUser) == 0 {
		return &gomail.Dialer{Host: mailHost, Port: mailPort}
	}
	return gomail.NewDialer(mailHost, mailPort, mailUser, mailPass)
}

// MailReport sends the finished spreadsheet to the configured recipients.
func MailReport(path string, userCount int, ous []string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", mailFrom)
	m.SetHeader("To", mailTo...)
	if len(mailBCC) > 0 {
		m.SetHeader("Bcc", mailBCC...)
	}
	m.SetHeader("Subject", "User group membership report")
	m.SetBody("text/html", reportMailBody(userCount, ous))
	m.Attach(path)

	if err := mailDialer().DialAndSend(m); err != nil {
		log.Errorf("Error sending report mail: %s", err)
		return err
	}
	log.WithFields(log.Fields{"recipients": len(mailTo), "attachment": path}).Info("Report mail sent.")
	return nil
}

// MailFailureAlert tells the administrators a run died. Best effort: a
// failure to send the alert is logged and swallowed, never escalated.
func MailFailureAlert(runErr error) {
	if runErr == nil {
		log.Warn("Failure alert requested without an error.  Will not attempt to send it")
		return
	}
	m := gomail.NewMessage()
	m.SetHeader("From", mailFrom)
	m.SetHeader("To", mailAdmins...)
	m.SetHeader("Subject", "FAILURE: user group membership report")
	m.SetHeader("X-Priority", "1 (Highest)")
	m.SetHeader("Importance", "high")
	m.SetBody("text/plain", runErr.Error())

	if err := mailDialer().DialAndSend(m); err != nil {
		log.Errorf("Error sending failure alert: %s", err)
	}
}
