package render

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontStyle стиль шрифта
type FontStyle string

const (
	FontStyleDefault FontStyle = ""
	FontStyleBold    FontStyle = "bold"
)

// Константы размеров и отступов
const (
	imageWidth       = 1200
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 140
	dayPaddingX      = 8
	minLessonHeight  = 8.0
	lessonRadius     = 6.0
	shadowOffset     = 3.0
	workdaysInWeek   = 5
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 8
	defaultMaxHour   = 20
	maxLabelRunes    = 18
	hatchStep        = 10.0
	headerTitleScale = 8
)

// Константы шрифтов
const (
	titleFontSize      = 25.0
	dayFontSize        = 24.0
	hourLabelFontSize  = 18.0
	lessonFontSize     = 16.0
	legendItemFontSize = 12.0
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 125}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	lessonDefaultColor   = color.RGBA{133, 193, 85, 220}
	lessonCancelledColor = color.RGBA{158, 158, 158, 200}
	lessonBlockedColor   = color.RGBA{200, 200, 200, 255}
	hatchColor           = color.RGBA{120, 120, 120, 160}
	lessonTextColor      = color.RGBA{20, 24, 28, 230}
	lessonShadowColor    = color.RGBA{0, 0, 0, 20}

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

// hourRange диапазон часов для отображения
type hourRange struct {
	start int
	end   int
	total int
}

// WeekImage данные для отрисовки недели
type WeekImage struct {
	View     *model.WeekView
	Subjects map[int64]model.Subject
	Now      time.Time // подсветка сегодняшнего дня и линия текущего времени
}

// entry занятие вместе с контрактом
type entry struct {
	lesson   *model.Lesson
	contract *model.Contract
}

var (
	fontsMu     sync.Mutex
	cachedFonts = make(map[FontStyle]*opentype.Font)
)

// loadFont загружает шрифт указанного стиля или использует basicfont как fallback
func loadFont(dc *gg.Context, size float64, style FontStyle) {
	fontsMu.Lock()
	parsed, ok := cachedFonts[style]
	if !ok {
		data := goregular.TTF
		if style == FontStyleBold {
			data = gobold.TTF
		}
		var err error
		parsed, err = opentype.Parse(data)
		if err != nil {
			parsed = nil
		}
		cachedFonts[style] = parsed
	}
	fontsMu.Unlock()

	if parsed == nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}
	dc.SetFontFace(face)
}

// Render рисует неделю Пн–Пт с занятиями и кодирует в PNG
func (w WeekImage) Render() ([]byte, error) {
	if w.View == nil {
		return nil, fmt.Errorf("render week: no week view")
	}

	weekStart := w.View.WeekStart
	today := time.Date(w.Now.Year(), w.Now.Month(), w.Now.Day(), 0, 0, 0, 0, time.UTC)
	highlightToday := !w.Now.IsZero() && !today.Before(weekStart) && !today.After(w.View.WeekEnd)

	byDay := w.groupByDay()
	hours := calculateHourRange(w.View.Contracts)

	dc := createCanvas()
	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / workdaysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, weekStart, w.View.WeekEnd)
	drawHourLabels(dc, hours, cellHeight)

	for dayIndex := 0; dayIndex < workdaysInWeek; dayIndex++ {
		date := weekStart.AddDate(0, 0, dayIndex)
		x := float64(leftLabelsWidth + dayIndex*dayWidth)
		y := float64(headerHeight)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, dayIndex, highlightToday && date.Equal(today))
		drawDayHeader(dc, date, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, e := range byDay[date.Format(time.DateOnly)] {
			w.drawLesson(dc, e, x, y, dayWidth, hours, cellHeight)
		}
	}

	if highlightToday {
		drawCurrentTimeLine(dc, w.Now, hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	return encodeImage(dc)
}

// groupByDay группирует занятия по дате
func (w WeekImage) groupByDay() map[string][]entry {
	contracts := make(map[int64]*model.Contract, len(w.View.Contracts))
	for _, wc := range w.View.Contracts {
		contracts[wc.Contract.ID] = wc.Contract
	}

	out := make(map[string][]entry)
	for _, l := range w.View.Lessons {
		c, ok := contracts[l.ContractID]
		if !ok {
			continue
		}
		key := l.Date.Format(time.DateOnly)
		out[key] = append(out[key], entry{lesson: l, contract: c})
	}
	return out
}

// calculateHourRange определяет диапазон часов для отображения
func calculateHourRange(week []model.WeekContract) hourRange {
	minHour := 24
	maxHour := 0

	for _, wc := range week {
		startH := wc.Contract.StartTime.Hour()
		endH := wc.Contract.EndTime.Hour()
		if wc.Contract.EndTime.Minute() > 0 {
			endH++
		}
		minHour = min(minHour, startH)
		maxHour = max(maxHour, endH)
	}

	if minHour == 24 {
		minHour = defaultMinHour
		maxHour = defaultMaxHour
	}

	startHour := max(minHour-hourPaddingTop, 0)
	endHour := min(maxHour+hourPaddingBot, 23)

	return hourRange{
		start: startHour,
		end:   endHour,
		total: endHour - startHour + 1,
	}
}

// createCanvas создает новый контекст рисования с фоном
func createCanvas() *gg.Context {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	return dc
}

// drawHeader рисует заголовок с диапазоном дат
func drawHeader(dc *gg.Context, start, end time.Time) {
	title := start.Format("02.01.2006") + " - " + end.Format("02.01.2006")

	loadFont(dc, titleFontSize, FontStyleBold)
	dc.SetColor(textColor)
	w, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, w/2+10, float64(headerHeight)/headerTitleScale+h/2, 0, 0)
}

// drawHourLabels рисует колонку с часами слева
func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	loadFont(dc, hourLabelFontSize, FontStyleDefault)
	dc.SetColor(hourLabelColor)

	for hIdx := 0; hIdx < hours.total; hIdx++ {
		y := float64(headerHeight) + float64(hIdx)*cellHeight
		dc.DrawStringAnchored(formatHourLabel(hours.start+hIdx), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

// drawDayBackground рисует фон дня
func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

// drawDayHeader рисует название дня недели и дату
func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	loadFont(dc, dayFontSize, FontStyleBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(weekdayShort(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

// drawHourLines рисует горизонтальные линии часов
func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for hIdx := 0; hIdx <= hours.total; hIdx++ {
		hy := y + float64(hIdx)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

// drawLesson рисует одно занятие
func (w WeekImage) drawLesson(dc *gg.Context, e entry, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startHour := float64(e.contract.StartTime) / 60.0
	endHour := float64(e.contract.EndTime) / 60.0

	lessonY := y + (startHour-float64(hours.start))*cellHeight
	lessonHeight := max((endHour-startHour)*cellHeight, minLessonHeight)
	lessonWidth := float64(dayWidth) - float64(dayPaddingX*2)
	left := x + float64(dayPaddingX)

	subject, hasSubject := w.Subjects[e.contract.SubjectID]
	fill := w.lessonColor(e.lesson, subject, hasSubject)

	// Тень
	dc.SetColor(lessonShadowColor)
	dc.DrawRoundedRectangle(left+shadowOffset, lessonY+2+shadowOffset, lessonWidth, lessonHeight-4, lessonRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(left, lessonY+2, lessonWidth, lessonHeight-4, lessonRadius)
	dc.Fill()

	if e.lesson.Blocked {
		drawHatch(dc, left, lessonY+2, lessonWidth, lessonHeight-4)
	}

	// Рамка
	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(left, lessonY+2, lessonWidth, lessonHeight-4, lessonRadius)
	dc.Stroke()

	loadFont(dc, lessonFontSize, FontStyleBold)
	dc.SetColor(lessonTextColor)
	txtX := left + 8
	txtY := lessonY + 18
	dc.DrawStringAnchored(e.contract.StartTime.String()+" "+stateMark(e.lesson), txtX, txtY, 0, 0)

	if lessonHeight > 25 {
		label := subject.ShortForm
		if !hasSubject || label == "" {
			label = "#" + strconv.FormatInt(e.contract.SubjectID, 10)
		}
		if notes := strings.TrimSpace(e.lesson.Notes); notes != "" {
			label += " " + notes
		}
		loadFont(dc, lessonFontSize-2, FontStyleDefault)
		dc.DrawStringAnchored(truncate(label, maxLabelRunes), txtX, txtY+16, 0, 0)
	}
}

// lessonColor цвет занятия: цвет предмета, серый для отменённых и заблокированных
func (w WeekImage) lessonColor(l *model.Lesson, subject model.Subject, ok bool) color.RGBA {
	switch {
	case l.Blocked:
		return lessonBlockedColor
	case l.State == model.LessonStateCancelled:
		return lessonCancelledColor
	}
	if ok {
		if c, err := parseHexColor(subject.Color); err == nil {
			return c
		}
	}
	return lessonDefaultColor
}

// drawHatch штрихует заблокированное занятие
func drawHatch(dc *gg.Context, x, y, width, height float64) {
	dc.Push()
	dc.DrawRectangle(x, y, width, height)
	dc.Clip()
	dc.SetColor(hatchColor)
	dc.SetLineWidth(1.5)
	for offset := -height; offset < width; offset += hatchStep {
		dc.DrawLine(x+offset, y+height, x+offset+height, y)
		dc.Stroke()
	}
	dc.ResetClip()
	dc.Pop()
}

// stateMark короткая отметка состояния занятия
func stateMark(l *model.Lesson) string {
	switch {
	case l.Blocked:
		return "!"
	case l.State == model.LessonStateHeld:
		return "+"
	case l.State == model.LessonStateCancelled:
		return "-"
	}
	return ""
}

// parseHexColor разбирает цвет вида #RRGGBB
func parseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 220}, nil
}

// darkenColor затемняет цвет на указанный множитель
func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// drawCurrentTimeLine рисует красную линию текущего времени
func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	currentHour := float64(now.Hour()) + float64(now.Minute())/60.0
	if currentHour < float64(hours.start) || currentHour > float64(hours.end) {
		return
	}

	y := float64(headerHeight) + (currentHour-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), y, float64(leftLabelsWidth+workdaysInWeek*dayWidth), y)
	dc.Stroke()
}

// drawLegend рисует легенду справа
func drawLegend(dc *gg.Context, dayWidth int) {
	items := []struct {
		label string
		clr   color.Color
	}{
		{"Запланировано", lessonDefaultColor},
		{"Отменено", lessonCancelledColor},
		{"Отпуск", lessonBlockedColor},
	}

	const boxW, boxH = 20.0, 14.0
	x := float64(leftLabelsWidth + workdaysInWeek*dayWidth + 10)
	y := float64(imageHeight) - 100.0 + 22

	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(x, y, boxW, boxH, 3)
		dc.Fill()

		loadFont(dc, legendItemFontSize, FontStyleDefault)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, x+boxW+8, y+boxH/2+1, 0, 0.2)
		y += boxH + 14
	}
}

// encodeImage кодирует изображение в PNG
func encodeImage(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func formatHourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// короткие дни недели
func weekdayShort(weekday time.Weekday) string {
	return map[time.Weekday]string{
		time.Monday:    "Пн",
		time.Tuesday:   "Вт",
		time.Wednesday: "Ср",
		time.Thursday:  "Чт",
		time.Friday:    "Пт",
		time.Saturday:  "Сб",
		time.Sunday:    "Вс",
	}[weekday]
}
