package notice

// fallbackNotices is substituted when a harvest collects nothing.
var fallbackNotices = []Notice{
	{
		Title:   "5/31(토) Apple과 함께 하는 'Today At Apple' 오프라인 행사 안내",
		Href:    "https://forum.nexon.com/fcmobile/board_view?board=441&thread=2896831",
		Summary: "FC 모바일과 Apple이 함께하는 특별 오프라인 이벤트를 안내합니다.",
		Board:   "공지사항",
		BoardID: "441",
	},
	{
		Title:   "5/15(목) 점검 후 이슈 안내",
		Href:    "https://forum.nexon.com/fcmobile/board_view?board=441&thread=2894984",
		Summary: "5월 15일 점검 이후 발생한 문제점과 해결 방안을 안내합니다.",
		Board:   "공지사항",
		BoardID: "441",
	},
}

// FallbackNotices returns a copy of the sample notices used for empty runs.
func FallbackNotices() []Notice {
	out := make([]Notice, len(fallbackNotices))
	copy(out, fallbackNotices)
	return out
}
