// Package messages содержит каталог исходящих текстов бота.
// Управляющая логика оперирует только типом сообщения (Kind); подстановка
// языка и параметров выполняется чистой функцией Render, отдельно от
// переходов диалога.
package messages

import (
	"fmt"
	"strings"
	"time"

	"github.com/godlycrypto/referral-bot/internal/models"
)

// Kind тип исходящего сообщения участнику.
type Kind int

// Типы сообщений диалога регистрации.
const (
	KindNone Kind = iota
	KindWelcome
	KindAskName
	KindAskNumber
	KindAskEmail
	KindAskGodfather
	KindChoosePayment
	KindPaymentInstructions
	KindPendingApproval
	KindApproved
	KindRejected
	KindCancelled
	KindStoreError
	KindAlreadyActive
)

// Params параметры подстановки в текст сообщения.
type Params struct {
	Fee         int
	RenewalDate string
	Method      models.PaymentMethod
}

// DateFormat формат дат в текстах для участников, аналог "25 June 2025".
const DateFormat = "02 January 2006"

// Render возвращает текст сообщения указанного типа на языке участника.
// Для неизвестного типа возвращает пустую строку.
func Render(kind Kind, lang models.Language, p Params) string {
	if lang != models.LanguageFR {
		lang = models.LanguageEN
	}
	switch kind {
	case KindWelcome:
		return "🎉 Welcome to our referral system! / Bienvenue dans notre système de parrainage!\n\n" +
			"Please choose your language / Choisissez votre langue:"
	case KindAskName:
		return pick(lang, "📝 Entrez votre nom complet:", "📝 Please enter your full name:")
	case KindAskNumber:
		return pick(lang,
			"📞 Entrez votre numéro de téléphone (Ex: 67...):",
			"📞 Please enter your phone number (e.g., 67...):")
	case KindAskEmail:
		return pick(lang, "📧 Entrez votre adresse e-mail:", "📧 Please enter your email address:")
	case KindAskGodfather:
		return pick(lang,
			"👨‍👦 Entrez le numéro d'utilisateur Telegram de votre parrain (ou envoyez 'skip' si vous n'en avez pas):",
			"👨‍👦 Please enter your godfather's Telegram user ID (or send 'skip' if you don't have one):")
	case KindChoosePayment:
		return pick(lang,
			fmt.Sprintf("✅ Informations enregistrées ! Pour activer votre compte, veuillez payer les frais d'abonnement de **%d FCFA**. Choisissez votre mode de paiement :", p.Fee),
			fmt.Sprintf("✅ Information saved! To activate your account, please pay the **%d FCFA** subscription fee. Choose your payment method:", p.Fee))
	case KindPaymentInstructions:
		return paymentInstructions(lang, p)
	case KindPendingApproval:
		return pick(lang,
			"⏳ Votre paiement est en cours de vérification. Vous recevrez une notification de l'administrateur très bientôt.",
			"⏳ Your payment is being verified. You will receive a notification from the admin very soon.")
	case KindApproved:
		return pick(lang,
			fmt.Sprintf("✅ **Félicitations ! Votre compte est approuvé.**\n\nVotre prochain renouvellement est le **%s**.\n\n**Règles de Parrainage :**\n%s", p.RenewalDate, referralRulesFR),
			fmt.Sprintf("✅ **Congratulations! Your account has been approved.**\n\nYour next renewal is on **%s**.\n\n**Referral Rules:**\n%s", p.RenewalDate, referralRulesEN))
	case KindRejected:
		return pick(lang,
			"❌ **Paiement Refusé**\n\nDésolé, votre paiement n'a pas pu être vérifié. Veuillez vérifier les détails de la transaction et contacter un administrateur si vous pensez qu'il s'agit d'une erreur.",
			"❌ **Payment Rejected**\n\nSorry, your payment could not be verified. Please check the transaction details and contact an admin if you believe this is an error.")
	case KindCancelled:
		return pick(lang,
			"❌ Inscription annulée. Tapez /start pour recommencer.",
			"❌ Registration cancelled. Type /start to begin again.")
	case KindStoreError:
		return pick(lang,
			"❌ Une erreur de base de données s'est produite. Veuillez réessayer ou contacter un administrateur.",
			"❌ A database error occurred. Please try again or contact an admin.")
	case KindAlreadyActive:
		return pick(lang,
			fmt.Sprintf("👋 Re-bonjour! Votre compte est déjà actif. Votre prochain renouvellement est le %s.", p.RenewalDate),
			fmt.Sprintf("👋 Welcome back! Your account is already active. Your next renewal date is %s.", p.RenewalDate))
	}
	return ""
}

const referralRulesFR = "Vous recevrez une somme de 2000 FCFA chaque fois qu'un nouveau compte est créé et une somme globale lorsque les différents " +
	"individus parrainés par vous paient leurs abonnements de 5000 FCFA à la fin du mois (25 de chaque mois).\n\n" +
	"Tous les paiements sont faits le 25 de chaque mois et les comptes qui manqueront de payer seront automatiquement supprimés.\n\n" +
	"Profitez au maximum de notre service de parrainage et gagnez plus grâce à l'achat et la revente des crypto."

const referralRulesEN = "You will receive a sum of 2000 FCFA each time a new account is created and a global amount when the different individuals " +
	"sponsored by you pay their subscriptions of 5000 FCFA at the end of the month (25th of each month).\n\n" +
	"All payments are made on the 25th of each month and accounts that fail to pay will be automatically deleted.\n\n" +
	"Make the most of our referral service and earn more by buying and reselling crypto."

func pick(lang models.Language, fr, en string) string {
	if lang == models.LanguageFR {
		return fr
	}
	return en
}

func paymentInstructions(lang models.Language, p Params) string {
	switch p.Method {
	case models.PaymentMTN:
		return pick(lang,
			fmt.Sprintf("📱 **Paiement par MTN Mobile Money**\n\nVeuillez transférer **%d FCFA** au numéro suivant:\nNuméro: `+237 6XXXXXXXX`\nNom: `NOM DU BÉNÉFICIAIRE`\n\nAprès le paiement, revenez ici et envoyez l'ID de la transaction pour vérification.", p.Fee),
			fmt.Sprintf("📱 **MTN Mobile Money Payment**\n\nPlease transfer **%d FCFA** to the following number:\nNumber: `+237 6XXXXXXXX`\nName: `RECIPIENT NAME`\n\nAfter payment, come back here and send the Transaction ID for verification.", p.Fee))
	case models.PaymentOrange:
		return pick(lang,
			fmt.Sprintf("🍊 **Paiement par Orange Money**\n\nVeuillez transférer **%d FCFA** au numéro suivant:\nNuméro: `+237 6XXXXXXXX`\nNom: `NOM DU BÉNÉFICIAIRE`\n\nAprès le paiement, revenez ici et envoyez l'ID de la transaction pour vérification.", p.Fee),
			fmt.Sprintf("🍊 **Orange Money Payment**\n\nPlease transfer **%d FCFA** to the following number:\nNumber: `+237 6XXXXXXXX`\nName: `RECIPIENT NAME`\n\nAfter payment, come back here and send the Transaction ID for verification.", p.Fee))
	}
	return ""
}

// AdminSubmission возвращает сводку новой заявки для канала администратора.
func AdminSubmission(m models.Member) string {
	username := "No username"
	if m.Username != "" {
		username = "@" + m.Username
	}
	godfather := "None"
	if m.Godfather != nil {
		godfather = fmt.Sprintf("%d", *m.Godfather)
	}
	return fmt.Sprintf(
		"🔔 **NEW PAYMENT SUBMISSION** 🔔\n\n"+
			"👤 **User:** %s (%s)\n"+
			"🆔 **User ID:** `%d`\n"+
			"📞 **Phone:** %s\n"+
			"📧 **Email:** %s\n"+
			"👨‍👦 **Godfather ID:** %s\n"+
			"💳 **Method:** %s\n"+
			"🧾 **Transaction ID:** `%s`\n",
		m.FullName, username, m.UserID, m.Phone, m.Email, godfather,
		strings.ToUpper(string(m.PaymentMethod)), m.TransactionID)
}

// DecisionSuffix возвращает приписку к сообщению администратора после решения.
func DecisionSuffix(approved bool, adminName string, memberNotified bool) string {
	mark := "✅ APPROVED"
	if !approved {
		mark = "❌ REJECTED"
	}
	if !memberNotified {
		return fmt.Sprintf("\n\n--- [ %s but user could not be notified. ] ---", mark)
	}
	return fmt.Sprintf("\n\n--- [ %s by %s ] ---", mark, adminName)
}

// AdminNotFound текст для администратора, когда анкета не найдена.
func AdminNotFound(userID int64) string {
	return fmt.Sprintf("⚠️ Error: User with ID %d not found in the database.", userID)
}

// AdminAlreadyDecided текст для администратора при повторном нажатии кнопки.
func AdminAlreadyDecided(userID int64, status models.Status) string {
	return fmt.Sprintf("\n\n--- [ ⚠️ Already decided: user %d is %s, no action taken. ] ---", userID, status)
}

// AdminDecisionFailed текст для администратора при ошибке записи решения.
func AdminDecisionFailed(userID int64) string {
	return fmt.Sprintf("\n\n--- [ ⚠️ Failed to store decision for user %d, please retry. ] ---", userID)
}

// EarningsText текст уведомления спонсора о месячных начислениях.
func EarningsText(count, amount int) string {
	return fmt.Sprintf("🎉 You earned %d FCFA from %d referral(s) this month! Thank you for referring new users.", amount, count)
}

// ReportText собирает сводный месячный отчёт для администратора.
func ReportText(r models.AdminReport) string {
	lines := []string{
		fmt.Sprintf("Referral Earnings Report (%s - %s)",
			r.PeriodStart.Format("02 Jan 2006"), r.PeriodEnd.Format("02 Jan 2006")),
		"User | Referrals | Amount (FCFA)",
		strings.Repeat("-", 35),
	}
	for _, e := range r.Entries {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("%d", e.SponsorID)
		}
		lines = append(lines, fmt.Sprintf("%s (@%s) | %d | %d", name, e.Username, e.Count, e.Amount))
	}
	lines = append(lines, strings.Repeat("-", 35))
	lines = append(lines, fmt.Sprintf("Total payout: %d FCFA", r.TotalPayout))
	return strings.Join(lines, "\n")
}

// MemberInfo текст команды /myinfo.
func MemberInfo(m *models.Member) string {
	godfather := "None"
	if m.Godfather != nil {
		godfather = fmt.Sprintf("%d", *m.Godfather)
	}
	return fmt.Sprintf(
		"👤 Name: %s\n"+
			"📞 Phone: %s\n"+
			"📧 Email: %s\n"+
			"👨‍👦 Godfather ID: %s\n"+
			"💳 Payment: %s\n"+
			"🧾 Transaction ID: %s\n"+
			"Status: %s",
		m.FullName, m.Phone, m.Email, godfather, m.PaymentMethod, m.TransactionID, m.Status)
}

// RenewalInfo текст команды /renew при активной подписке.
func RenewalInfo(renewalDate time.Time) string {
	return fmt.Sprintf("Your next renewal date is: %s", renewalDate.Format(DateFormat))
}

// NoSubscription текст команды /renew без активной подписки.
const NoSubscription = "You do not have an active subscription."

// ReferralLink возвращает реферальную ссылку участника.
func ReferralLink(botUsername string, userID int64) string {
	return fmt.Sprintf("Your referral link is:\nhttps://t.me/%s?start=%d", botUsername, userID)
}

// ReferralCount текст команд /stats и /referralstats.
func ReferralCount(count int) string {
	return fmt.Sprintf("You have referred %d people.", count)
}

// EarningsSummary текст команды /referral_earnings.
func EarningsSummary(stats *models.EarningsStats) string {
	return fmt.Sprintf(
		"💸 *Referral Earnings*\n\n"+
			"All-time: %d referrals = %d FCFA\n"+
			"This month: %d referrals = %d FCFA",
		stats.AllTimeCount, stats.AllTimeEarnings,
		stats.PeriodCount, stats.PeriodEarnings)
}

// NoInfo текст ответа, когда анкета участника не найдена.
const NoInfo = "No info found."

// AboutUs статический текст команды /aboutus.
const AboutUs = "🤖 *About Us*\n\nWe are a referral-based subscription service helping you earn rewards for inviting others. For more info, contact support."

// ContactUs статический текст команды /contactus.
const ContactUs = "📞 *Contact Us*\n\nFor support, email: support@example.com or call +237 6XXXXXXXX."
