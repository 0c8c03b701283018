package config

import "github.com/spf13/viper"

type MailConfig interface {
	GetSmtpHost() string
	GetSmtpPort() string
	GetSmtpAccount() string
	GetSmtpPassword() string
	GetMailSender() string
	GetMailSubjectPrefix() string
}

type Mail struct{}

var _ MailConfig = Mail{}

func (Mail) GetSmtpHost() string {
	return viper.GetString("SMTP_HOST")
}

func (Mail) GetSmtpPort() string {
	return viper.GetString("SMTP_PORT")
}

func (Mail) GetSmtpAccount() string {
	return viper.GetString("SMTP_ACCOUNT")
}

func (Mail) GetSmtpPassword() string {
	return viper.GetString("SMTP_PASSWORD")
}

func (Mail) GetMailSender() string {
	return viper.GetString("MAIL_SENDER")
}

func (Mail) GetMailSubjectPrefix() string {
	return viper.GetString("MAIL_SUBJECT_PREFIX")
}
