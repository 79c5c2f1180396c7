package usecase

import (
	"encoding/json"
	"strings"

	"github.com/karimbenali/docpipe/internal/core/domain"
)

// Role tags sent with each completion. Advisory only: they appear in
// transport logs and metrics, the model sees just the prompt.
const (
	RoleCleaner    = "ocr_cleaner"
	RoleExtractor  = "entity_extractor"
	RoleReviewer   = "data_reviewer"
	RoleClassifier = "document_classifier"
)

func buildCleanPrompt(text string) string {
	var b strings.Builder
	b.WriteString("أنت خبير في تنظيف النصوص العربية المستخرجة من OCR للوثائق الحكومية.\n")
	b.WriteString("نظّف وحسّن النص التالي: صحّح أخطاء OCR الشائعة والأخطاء الإملائية البسيطة،\n")
	b.WriteString("ونظّم النص منطقياً مع الحفاظ على المعنى الأصلي. أعد النص المنظّف فقط بدون أي شرح.\n\n")
	b.WriteString("النص:\n")
	b.WriteString(text)
	return b.String()
}

func buildExtractPrompt(text string) string {
	var b strings.Builder
	b.WriteString("أنت خبير في استخراج البيانات من الوثائق الحكومية العربية المكتوبة بخط اليد.\n\n")
	b.WriteString("استخرج أي معلومات مفيدة من النص التالي:\n\n")
	b.WriteString(text)
	b.WriteString("\n\nقواعد الاستخراج:\n")
	b.WriteString("1. لا تكتب التسمية (مثل \"الاسم\") كقيمة للحقل، ابحث عن المحتوى الفريد أو المكتوب بخط اليد بجوارها\n")
	b.WriteString("2. فضّل المحتوى الجزئي أو المكتوب بخط اليد على نصوص القوالب المطبوعة\n")
	b.WriteString("3. استخرج الأرقام والتواريخ والأسماء حتى لو كانت جزئية\n")
	b.WriteString("4. لا تكرر نفس القيمة في أكثر من حقل\n")
	b.WriteString("5. لا تترك أي حقل فارغاً إلا إذا استحال الاستنتاج، وعندها اكتب \"unavailable\"\n\n")
	b.WriteString("أجب بـ JSON صِرف فقط بهذه المفاتيح بالضبط:\n")
	b.WriteString(`{
    "document_number": "...",
    "date": "...",
    "document_type": "...",
    "issuing_authority": "...",
    "primary_name": "...",
    "responsible_party": "...",
    "subject": "..."
}`)
	return b.String()
}

func buildReviewPrompt(fields domain.FieldSet) string {
	payload, _ := json.MarshalIndent(fields.Wire(), "", "  ")

	var b strings.Builder
	b.WriteString("أنت مراجع خبير للبيانات المستخرجة من الوثائق العربية.\n\n")
	b.WriteString("راجع البيانات التالية وحسّنها:\n\n")
	b.Write(payload)
	b.WriteString("\n\nقواعد المراجعة:\n")
	b.WriteString("1. إذا وجدت تسمية مثل \"الاسم:\" في بداية القيمة، أزلها واحتفظ بما بعدها\n")
	b.WriteString("2. إذا كانت القيمة فارغة أو مجرد تسمية مطبوعة، ضع \"unavailable\"\n")
	b.WriteString("3. أضف \"(needs review)\" بعد أي محتوى غير واضح\n")
	b.WriteString("4. احتفظ بجميع الأرقام والتواريخ والأسماء كما هي، ولا تختلق محتوى جديداً\n\n")
	b.WriteString("مثال:\n")
	b.WriteString(`قبل: {"primary_name": "الاسم: محمد سليم"}` + "\n")
	b.WriteString(`بعد: {"primary_name": "محمد سليم"}` + "\n\n")
	b.WriteString("أعد البيانات المحسّنة بـ JSON فقط بدون أي نص إضافي.")
	return b.String()
}

func buildClassifyPrompt(text string) string {
	var b strings.Builder
	b.WriteString("أنت خبير في تصنيف الوثائق العربية الحكومية.\n\n")
	b.WriteString("صنّف الوثيقة التالية إلى فئة واحدة بالضبط من القائمة:\n")
	for _, category := range domain.Categories {
		b.WriteString("- ")
		b.WriteString(category)
		b.WriteString("\n")
	}
	b.WriteString("\nالنص:\n")
	b.WriteString(text)
	b.WriteString("\n\nقدّم النتيجة بـ JSON فقط:\n")
	b.WriteString(`{
    "category": "التصنيف",
    "confidence": "high/medium/low",
    "reason": "سبب التصنيف",
    "features": ["قائمة بالخصائص المميزة"]
}`)
	return b.String()
}
