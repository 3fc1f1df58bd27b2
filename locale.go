package main

import "golang.org/x/text/language"

// This file holds the bundled locale tables. The daemon ships four locales
// (Turkish, English, German, Arabic); anything else falls back to English.
// Lookup is framework-independent: plain maps keyed by short language code.

var prayerNames = map[PrayerName]map[string]string{
	PrayerFajr:    {"tr": "İmsak", "en": "Fajr", "de": "Fadschr", "ar": "الفجر"},
	PrayerSunrise: {"tr": "Güneş", "en": "Sunrise", "de": "Sonnenaufgang", "ar": "الشروق"},
	PrayerDhuhr:   {"tr": "Öğle", "en": "Dhuhr", "de": "Dhuhr", "ar": "الظهر"},
	PrayerAsr:     {"tr": "İkindi", "en": "Asr", "de": "Asr", "ar": "العصر"},
	PrayerMaghrib: {"tr": "Akşam", "en": "Maghrib", "de": "Maghrib", "ar": "المغرب"},
	PrayerIsha:    {"tr": "Yatsı", "en": "Isha", "de": "Ischa", "ar": "العشاء"},
}

var uiLabels = map[string]map[string]string{
	"loading":         {"tr": "Yükleniyor...", "en": "Loading...", "de": "Laden...", "ar": "جار التحميل..."},
	"noData":          {"tr": "Veri yok", "en": "No data", "de": "Keine Daten", "ar": "لا توجد بيانات"},
	"error":           {"tr": "Hata", "en": "Error", "de": "Fehler", "ar": "خطأ"},
	"cached":          {"tr": "Önbellek", "en": "Cached", "de": "Zwischengespeichert", "ar": "مخزن مؤقتا"},
	"manualLocation":  {"tr": "Manuel Konum", "en": "Manual Location", "de": "Manueller Standort", "ar": "الموقع اليدوي"},
	"unknown":         {"tr": "Bilinmiyor", "en": "Unknown", "de": "Unbekannt", "ar": "غير معروف"},
	"cachedLocation":  {"tr": "Önbellekli Konum", "en": "Cached Location", "de": "Zwischengespeicherter Standort", "ar": "الموقع المخزن"},
	"defaultIstanbul": {"tr": "Varsayılan (İstanbul)", "en": "Default (Istanbul)", "de": "Standard (Istanbul)", "ar": "الافتراضي (اسطنبول)"},
	"prayerTime":      {"tr": "Namaz Vakti", "en": "Prayer Time", "de": "Gebetszeit", "ar": "وقت الصلاة"},
	"prayerReminder":  {"tr": "Namaz Hatırlatma", "en": "Prayer Reminder", "de": "Gebetserinnerung", "ar": "تذكير الصلاة"},
	"timeEntered":     {"tr": "vakti girdi", "en": "time has entered", "de": "Zeit ist eingetreten", "ar": "قد حان وقت"},
	"minutesRemaining": {"tr": "dakika kaldı", "en": "minutes remaining", "de": "Minuten verbleibend", "ar": "دقائق متبقية"},
	"toTime":          {"tr": "vaktine", "en": "until", "de": "bis", "ar": "حتى"},
}

// calculationMethods enumerates the method ids accepted by the timings API.
var calculationMethods = map[int]string{
	0:  "Shia Ithna-Ashari",
	1:  "University of Islamic Sciences, Karachi",
	2:  "Islamic Society of North America",
	3:  "Muslim World League",
	4:  "Umm Al-Qura University, Makkah",
	5:  "Egyptian General Authority of Survey",
	7:  "Institute of Geophysics, University of Tehran",
	8:  "Gulf Region",
	9:  "Kuwait",
	10: "Qatar",
	11: "Majlis Ugama Islam Singapura",
	12: "Union Organization Islamic de France",
	13: "Diyanet İşleri Başkanlığı (Turkey)",
	14: "Spiritual Administration of Muslims of Russia",
	15: "Moonsighting Committee Worldwide",
}

const fallbackLanguage = "en"

var supportedLanguages = language.NewMatcher([]language.Tag{
	language.Turkish, // first tag is the matcher's fallback
	language.English,
	language.German,
	language.Arabic,
})

// matchLanguage maps an arbitrary language setting ("tr", "de-AT", "en_US")
// onto one of the bundled locale codes.
func matchLanguage(setting string) string {
	if setting == "" {
		return fallbackLanguage
	}
	tag, err := language.Parse(setting)
	if err != nil {
		return fallbackLanguage
	}
	_, index, conf := supportedLanguages.Match(tag)
	if conf == language.No {
		return fallbackLanguage
	}
	switch index {
	case 0:
		return "tr"
	case 2:
		return "de"
	case 3:
		return "ar"
	default:
		return "en"
	}
}

func localizedPrayerName(lang string, name PrayerName) string {
	if names, ok := prayerNames[name]; ok {
		if s, ok := names[lang]; ok {
			return s
		}
		return names[fallbackLanguage]
	}
	return string(name)
}

func uiLabel(lang, key string) string {
	if labels, ok := uiLabels[key]; ok {
		if s, ok := labels[lang]; ok {
			return s
		}
		return labels[fallbackLanguage]
	}
	return key
}
