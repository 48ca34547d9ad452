package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.MustParse("pt-BR")

	message.SetString(lang, "bot.greeting", "Olá, %s! Eu acompanho seus repositórios e aviso quando issues precisam de atenção.")
	message.SetString(lang, "bot.button.missed_deadlines", "\U0001F4D3 prazos perdidos")
	message.SetString(lang, "bot.button.available_issues", "\U0001F4D6 issues disponíveis")
	message.SetString(lang, "bot.button.contact_support", "\U0001F4AC falar com suporte")
	message.SetString(lang, "bot.repo_header", "<b>%s/%s</b>\n")
	message.SetString(lang, "bot.missed_deadline", "%s com <b>%s</b> há %d dias\n")
	message.SetString(lang, "bot.no_missed_deadlines", "Nenhum prazo perdido.")
	message.SetString(lang, "bot.available_issue", "- %s\n")
	message.SetString(lang, "bot.no_issues", "Nenhuma issue disponível no momento.")
	message.SetString(lang, "bot.support_contact", "Dúvidas? Fale com os mantenedores em %s.")
	message.SetString(lang, "bot.no_support", "Nenhum contato de suporte cadastrado para este repositório.")
	message.SetString(lang, "bot.subscription_on", "Você agora recebe notificações de novas issues.")
	message.SetString(lang, "bot.subscription_off", "Você não recebe mais notificações de novas issues.")
	message.SetString(lang, "bot.account_linked", "Sua conta foi conectada. Os relatórios chegam neste chat.")
	message.SetString(lang, "bot.link_failed", "Esse link é inválido ou expirou. Gere um novo no painel.")
	message.SetString(lang, "bot.not_linked", "Este chat ainda não está conectado. Abra o painel e conecte sua conta primeiro.")
	message.SetString(lang, "bot.assigned_header", "Issues atribuídas a <b>%s</b>:\n")
	message.SetString(lang, "bot.new_issues_header", "Há novas issues em <b>%s</b>!\n")
	message.SetString(lang, "bot.review_digest_header", "<b>Revisões e aprovações</b>\n")
	message.SetString(lang, "bot.review_entry", "Repo <b>%s</b>, pull request <b>#%d %s</b>\n")
	message.SetString(lang, "bot.review_line", "%s: %s\n")
	message.SetString(lang, "bot.unknown", "Não entendi. Use o teclado abaixo ou envie /start.")
}
