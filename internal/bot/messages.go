package bot

const (
	msgWelcome = "Assalomu alaykum! LUXECORE do'koniga xush kelibsiz.\n\n" +
		"Katalogni ko'rish, mahsulot qidirish, buyurtma berish yoki AI yordamchidan maslahat olish uchun quyidagi tugmalardan foydalaning."
	msgHelp = "Buyruqlar:\n/start – bosh menyu\n/catalog – katalog\n/cart – savat\n/help – yordam\n\n" +
		"Mahsulotni savatga qo'shing va «Rasmiylashtirish» tugmasini bosing."
	msgMainMenu    = "Bosh menyu"
	msgUnknown     = "Bu tugma eskirgan. Bosh menyudan davom eting."
	msgCartCleared = "Savat tozalandi."
	msgCartEmpty   = "Savatchangiz bo'sh."

	msgPickCategory = "Bo'limni tanlang:"
	msgProducts     = "Mahsulotlar"
	msgNoProducts   = "Bu bo'limda hozircha mahsulot yo'q."
	msgCatalogEmpty = "Katalog hozircha bo'sh."
	msgCatalogDown  = "Katalogni yuklab bo'lmadi. Birozdan so'ng qayta urinib ko'ring."
	msgProductGone  = "Mahsulot topilmadi yoki sotuvdan olingan."
	msgAddFailed    = "Mahsulotni savatga qo'shib bo'lmadi."

	msgSearchPrompt = "Qidirayotgan mahsulot nomini yozing:"
	msgNothingFound = "Hech narsa topilmadi. Boshqacha yozib ko'ring."

	msgTrackPrompt = "Buyurtmada ko'rsatilgan telefon raqamini yuboring:"
	msgBadPhone    = "Telefon raqami noto'g'ri. Masalan: +998 90 123 45 67"
	msgTrackDown   = "Buyurtmalarni tekshirib bo'lmadi. Keyinroq urinib ko'ring."
	msgNoOrders    = "Bu raqam bo'yicha buyurtmalar topilmadi."

	msgAIPrompt = "Savolingizni yozing, AI yordamchi javob beradi."
	msgAIOff    = "AI yordamchi hozircha mavjud emas."
	msgAIDown   = "AI yordamchi hozir javob bera olmadi. Keyinroq urinib ko'ring."

	msgCheckoutStart    = "Buyurtmani rasmiylashtiramiz."
	msgAskName          = "Ism va familiyangizni kiriting (masalan: Ali Valiyev):"
	msgAskFullName      = "Ism va familiyangizni to'liq kiriting (masalan: Ali Valiyev):"
	msgAskPhone         = "Telefon raqamingizni yuboring yoki yozing:"
	msgPhoneSaved       = "Rahmat!"
	msgAskCity          = "Shaharni kiriting:"
	msgAskStreet        = "Yetkazib berish manzilini kiriting (ko'cha, uy):"
	msgAskPromo         = "Promokodingiz bo'lsa, yozing:"
	msgPromoRetry       = "Boshqa promokod yozing yoki o'tkazib yuboring."
	msgAskPayment       = "To'lov usulini tanlang:"
	msgOperatorWillCall = "Tez orada operatorimiz siz bilan bog'lanadi."
)
